package domain

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Author      string    `db:"author" json:"author"`
	Year        *int      `db:"year" json:"year,omitempty"`
	ISBN        *string   `db:"isbn" json:"isbn,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CoverURL    *string   `db:"cover_url" json:"cover_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type BookSort string

const (
	BookSortLatest BookSort = "latest"
	BookSortOldest BookSort = "oldest"
	BookSortTitle  BookSort = "az"
)

// BookFilter narrows a listing. Zero values mean "no constraint".
type BookFilter struct {
	Title  string
	Author string
	Year   *int
	ISBN   string
	Sort   BookSort
}
