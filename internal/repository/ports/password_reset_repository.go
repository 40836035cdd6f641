package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookshelf-app/backend/internal/domain"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID uuid.UUID, otpHash, otpSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error)
	MarkConsumed(ctx context.Context, id int64) error
	ConsumeByUser(ctx context.Context, userID uuid.UUID) error
}
