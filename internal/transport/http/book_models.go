package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/service"
)

// BookRequest carries the writable fields for create and update.
type BookRequest struct {
	Title       string  `json:"title" example:"The Left Hand of Darkness"`
	Author      string  `json:"author" example:"Ursula K. Le Guin"`
	Year        *int    `json:"year,omitempty" example:"1969"`
	ISBN        *string `json:"isbn,omitempty" example:"978-0441478125"`
	Description *string `json:"description,omitempty" example:"A Hainish novel."`
}

// BookResponse is the wire shape of a catalog entry.
type BookResponse struct {
	ID          string    `json:"id" example:"a4a3556e-16b5-4f0e-9b8f-1f0f4df9f0b1"`
	OwnerID     string    `json:"owner_id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Year        *int      `json:"year,omitempty"`
	ISBN        *string   `json:"isbn,omitempty"`
	Description *string   `json:"description,omitempty"`
	CoverURL    *string   `json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookListResponse wraps a page of books with its pagination meta.
type BookListResponse struct {
	Items      []BookResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

func (r BookRequest) toDomain(id uuid.UUID) *domain.Book {
	return &domain.Book{
		ID:          id,
		Title:       r.Title,
		Author:      r.Author,
		Year:        r.Year,
		ISBN:        r.ISBN,
		Description: r.Description,
	}
}

func toBookResponse(book *domain.Book) BookResponse {
	return BookResponse{
		ID:          book.ID.String(),
		OwnerID:     book.OwnerID.String(),
		Title:       book.Title,
		Author:      book.Author,
		Year:        book.Year,
		ISBN:        book.ISBN,
		Description: book.Description,
		CoverURL:    book.CoverURL,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

func toBookListResponse(result *service.BookListResult) BookListResponse {
	items := make([]BookResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toBookResponse(&result.Items[i]))
	}
	return BookListResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}
}
