package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/media"
	"github.com/bookshelf-app/backend/internal/repository/ports"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookInvalid     = errors.New("title and author are required")
	ErrCoverNotAllowed = errors.New("cover image rejected")
)

// Subject is the verified caller identity a request is scoped to.
type Subject struct {
	UserID uuid.UUID
	Role   string
}

// scope returns the owner filter for repository calls. Admins see every row.
func (s Subject) scope() *uuid.UUID {
	if s.Role == domain.RoleAdmin {
		return nil
	}
	owner := s.UserID
	return &owner
}

type CoverValidator interface {
	Validate(upload media.Upload) (*media.Image, error)
}

type BookListResult struct {
	Items      []domain.Book
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// BookService executes catalog operations on behalf of an already-verified
// subject. It never authenticates; the transport layer rejects requests
// before they reach it.
type BookService struct {
	books     ports.BookRepository
	storage   ports.ObjectStorage
	validator CoverValidator
	bucket    string
}

func NewBookService(books ports.BookRepository, storage ports.ObjectStorage, validator CoverValidator, bucket string) *BookService {
	return &BookService{
		books:     books,
		storage:   storage,
		validator: validator,
		bucket:    bucket,
	}
}

func (s *BookService) Create(ctx context.Context, subject Subject, book *domain.Book) (*domain.Book, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	book.OwnerID = subject.UserID
	created, err := s.books.Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

func (s *BookService) Get(ctx context.Context, subject Subject, id uuid.UUID) (*domain.Book, error) {
	book, err := s.books.FindByID(ctx, id, subject.scope())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return book, nil
}

func (s *BookService) List(ctx context.Context, subject Subject, filter domain.BookFilter, page, pageSize int) (*BookListResult, error) {
	page, pageSize = normalizeBookPagination(page, pageSize)
	owner := subject.scope()

	items, err := s.books.List(ctx, owner, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	total, err := s.books.Count(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return &BookListResult{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *BookService) Update(ctx context.Context, subject Subject, book *domain.Book) (*domain.Book, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	updated, err := s.books.Update(ctx, book, subject.scope())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, subject Subject, id uuid.UUID) error {
	book, err := s.books.FindByID(ctx, id, subject.scope())
	if err != nil {
		if isNotFound(err) {
			return ErrBookNotFound
		}
		return fmt.Errorf("find book: %w", err)
	}

	if err := s.books.Delete(ctx, id, subject.scope()); err != nil {
		if isNotFound(err) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}
	s.removeCoverObject(ctx, book.CoverURL)
	return nil
}

// UploadCover validates and stores a new cover image, then swaps the URL on
// the row and drops the previous object.
func (s *BookService) UploadCover(ctx context.Context, subject Subject, id uuid.UUID, upload media.Upload) (*domain.Book, error) {
	book, err := s.books.FindByID(ctx, id, subject.scope())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	img, err := s.validator.Validate(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoverNotAllowed, err)
	}

	objectName := fmt.Sprintf("books/%s/%s%s", book.OwnerID, uuid.New().String(), img.Ext)
	url, err := s.storage.Upload(ctx, s.bucket, objectName, img.ContentType, bytes.NewReader(img.Bytes), int64(len(img.Bytes)))
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	updated, err := s.books.UpdateCoverURL(ctx, id, subject.scope(), &url)
	if err != nil {
		s.removeCoverObject(ctx, &url)
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update cover url: %w", err)
	}

	if book.CoverURL != nil && *book.CoverURL != url {
		s.removeCoverObject(ctx, book.CoverURL)
	}
	return updated, nil
}

// removeCoverObject is best effort; an orphaned object is not worth failing
// the request over.
func (s *BookService) removeCoverObject(ctx context.Context, coverURL *string) {
	if coverURL == nil {
		return
	}
	objectName := s.objectNameFromURL(*coverURL)
	if objectName == "" {
		return
	}
	if err := s.storage.Remove(ctx, s.bucket, objectName); err != nil {
		log.Printf("remove cover object %q: %v", objectName, err)
	}
}

func (s *BookService) objectNameFromURL(url string) string {
	marker := "/" + s.bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	return url[idx+len(marker):]
}

func validateBook(book *domain.Book) error {
	if book == nil {
		return ErrBookInvalid
	}
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	if book.Title == "" || book.Author == "" {
		return ErrBookInvalid
	}
	return nil
}

func normalizeBookPagination(page, pageSize int) (int, int) {
	const (
		defaultPageSize = 10
		maxPageSize     = 100
	)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
