package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/bookshelf-app/backend/internal/domain"
)

// BookRepository scopes every read and write to an owner unless the caller is
// unscoped (admin). A nil owner means unscoped.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) (*domain.Book, error)
	FindByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*domain.Book, error)
	List(ctx context.Context, owner *uuid.UUID, filter domain.BookFilter, limit, offset int) ([]domain.Book, error)
	Count(ctx context.Context, owner *uuid.UUID, filter domain.BookFilter) (int64, error)
	Update(ctx context.Context, book *domain.Book, owner *uuid.UUID) (*domain.Book, error)
	UpdateCoverURL(ctx context.Context, id uuid.UUID, owner *uuid.UUID, coverURL *string) (*domain.Book, error)
	Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error
}
