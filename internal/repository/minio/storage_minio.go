package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// Storage implements ports.ObjectStorage on a MinIO (or S3-compatible)
// backend. publicURL is the externally reachable base used to build the URLs
// stored on rows.
type Storage struct {
	client    *minio.Client
	publicURL string
}

func NewStorage(client *minio.Client, publicURL string) *Storage {
	return &Storage{
		client:    client,
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
	}
}

func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	_, err = s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	base := s.publicURL
	if base == "" {
		base = s.client.EndpointURL().String()
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, objectName), nil
}

func (s *Storage) Remove(ctx context.Context, bucket, objectName string) error {
	return s.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
}
