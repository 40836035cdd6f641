package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/bookshelf-app/backend/internal/config"
	"github.com/bookshelf-app/backend/internal/logging"
	"github.com/bookshelf-app/backend/internal/repository/postgres"
	"github.com/bookshelf-app/backend/internal/service"
	transporthttp "github.com/bookshelf-app/backend/internal/transport/http"
	"github.com/bookshelf-app/backend/internal/transport/mail"
	"github.com/bookshelf-app/backend/internal/util"
)

func main() {
	cfg := config.LoadAuth()

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

	tokens := util.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var mailer service.PasswordResetSender
	if cfg.SMTPHost != "" {
		mailer = mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS)
	} else {
		log.Println("SMTP not configured; password reset emails disabled")
	}

	auth := service.NewAuthService(
		postgres.NewUserRepo(db),
		postgres.NewPasswordResetRepo(db),
		tokens,
		mailer,
		cfg.GoogleAudience,
		cfg.PasswordResetTTL,
		cfg.PasswordResetOTPLength,
	)

	e := transporthttp.NewRouter("auth", cfg.AllowOrigins)
	transporthttp.RegisterAuth(e, auth, tokens, cfg.AuthRatePerMinute)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
