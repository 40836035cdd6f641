package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/bookshelf-app/backend/internal/config"
	"github.com/bookshelf-app/backend/internal/logging"
	"github.com/bookshelf-app/backend/internal/media"
	miniorepo "github.com/bookshelf-app/backend/internal/repository/minio"
	"github.com/bookshelf-app/backend/internal/repository/postgres"
	"github.com/bookshelf-app/backend/internal/service"
	transporthttp "github.com/bookshelf-app/backend/internal/transport/http"
	"github.com/bookshelf-app/backend/internal/util"
)

const coverMaxDimension = 4096

func main() {
	cfg := config.LoadBooks()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connect object storage: %v", err)
	}

	// Verify-only: this service never issues tokens, so the TTLs are unused.
	tokens := util.NewTokenManager(cfg.JWTSecret, 0, 0)
	books := service.NewBookService(
		postgres.NewBookRepo(db),
		miniorepo.NewStorage(minioClient, cfg.MinIOPublicURL),
		media.NewValidator(cfg.CoverImageMaxBytes, coverMaxDimension),
		cfg.MinIOBucketCovers,
	)

	e := transporthttp.NewRouter("books", cfg.AllowOrigins)
	transporthttp.RegisterBooks(e, books, tokens)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
