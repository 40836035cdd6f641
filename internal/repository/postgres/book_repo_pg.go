package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookshelf-app/backend/internal/domain"
)

type BookRepository struct {
	db *sqlx.DB
}

func NewBookRepo(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

const bookColumns = "id, owner_id, title, author, year, isbn, description, cover_url, created_at, updated_at"

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	const query = `
        INSERT INTO book (owner_id, title, author, year, isbn, description)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + bookColumns + `
    `
	row := r.db.QueryRowxContext(ctx, query, book.OwnerID, book.Title, book.Author, book.Year, book.ISBN, book.Description)
	var created domain.Book
	if err := row.StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*domain.Book, error) {
	query := `
        SELECT ` + bookColumns + `
        FROM book
        WHERE id = $1
    `
	params := []any{id}
	if owner != nil {
		query += " AND owner_id = $2"
		params = append(params, *owner)
	}
	var book domain.Book
	if err := r.db.GetContext(ctx, &book, query, params...); err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *BookRepository) List(ctx context.Context, owner *uuid.UUID, filter domain.BookFilter, limit, offset int) ([]domain.Book, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + bookColumns + " FROM book WHERE TRUE")
	params := appendBookFilter(&builder, nil, owner, filter)

	switch filter.Sort {
	case domain.BookSortOldest:
		builder.WriteString(" ORDER BY created_at ASC")
	case domain.BookSortTitle:
		builder.WriteString(" ORDER BY title ASC")
	default:
		builder.WriteString(" ORDER BY created_at DESC")
	}
	builder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(params)+1, len(params)+2))
	params = append(params, limit, offset)

	books := []domain.Book{}
	if err := r.db.SelectContext(ctx, &books, builder.String(), params...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookRepository) Count(ctx context.Context, owner *uuid.UUID, filter domain.BookFilter) (int64, error) {
	var builder strings.Builder
	builder.WriteString("SELECT COUNT(*) FROM book WHERE TRUE")
	params := appendBookFilter(&builder, nil, owner, filter)

	var total int64
	if err := r.db.GetContext(ctx, &total, builder.String(), params...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book, owner *uuid.UUID) (*domain.Book, error) {
	query := `
        UPDATE book
        SET title = $2,
            author = $3,
            year = $4,
            isbn = $5,
            description = $6,
            updated_at = NOW()
        WHERE id = $1
    `
	params := []any{book.ID, book.Title, book.Author, book.Year, book.ISBN, book.Description}
	if owner != nil {
		query += " AND owner_id = $7"
		params = append(params, *owner)
	}
	query += " RETURNING " + bookColumns

	row := r.db.QueryRowxContext(ctx, query, params...)
	var updated domain.Book
	if err := row.StructScan(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *BookRepository) UpdateCoverURL(ctx context.Context, id uuid.UUID, owner *uuid.UUID, coverURL *string) (*domain.Book, error) {
	query := `
        UPDATE book
        SET cover_url = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	params := []any{id, coverURL}
	if owner != nil {
		query += " AND owner_id = $3"
		params = append(params, *owner)
	}
	query += " RETURNING " + bookColumns

	row := r.db.QueryRowxContext(ctx, query, params...)
	var updated domain.Book
	if err := row.StructScan(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	query := "DELETE FROM book WHERE id = $1"
	params := []any{id}
	if owner != nil {
		query += " AND owner_id = $2"
		params = append(params, *owner)
	}
	result, err := r.db.ExecContext(ctx, query, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func appendBookFilter(builder *strings.Builder, params []any, owner *uuid.UUID, filter domain.BookFilter) []any {
	if owner != nil {
		params = append(params, *owner)
		fmt.Fprintf(builder, " AND owner_id = $%d", len(params))
	}
	if trimmed := strings.TrimSpace(filter.Title); trimmed != "" {
		params = append(params, "%"+trimmed+"%")
		fmt.Fprintf(builder, " AND title ILIKE $%d", len(params))
	}
	if trimmed := strings.TrimSpace(filter.Author); trimmed != "" {
		params = append(params, "%"+trimmed+"%")
		fmt.Fprintf(builder, " AND author ILIKE $%d", len(params))
	}
	if filter.Year != nil {
		params = append(params, *filter.Year)
		fmt.Fprintf(builder, " AND year = $%d", len(params))
	}
	if trimmed := strings.TrimSpace(filter.ISBN); trimmed != "" {
		params = append(params, "%"+trimmed+"%")
		fmt.Fprintf(builder, " AND isbn ILIKE $%d", len(params))
	}
	return params
}
