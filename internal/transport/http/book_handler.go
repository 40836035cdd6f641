package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/media"
	"github.com/bookshelf-app/backend/internal/service"
	"github.com/bookshelf-app/backend/internal/util"
)

const coverFormField = "image"

type BookHandler struct {
	books *service.BookService
}

func RegisterBooks(e *echo.Echo, books *service.BookService, tokens *util.TokenManager) {
	handler := &BookHandler{books: books}

	group := e.Group("/books", RequireAuth(tokens))
	group.POST("", handler.create)
	group.GET("", handler.list)
	group.GET("/:book_id", handler.get)
	group.PUT("/:book_id", handler.update)
	group.DELETE("/:book_id", handler.remove)
	group.POST("/:book_id/cover", handler.uploadCover)
}

func (h *BookHandler) create(c echo.Context) error {
	subject, ok := CurrentSubject(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	created, err := h.books.Create(c.Request().Context(), subject, req.toDomain(uuid.Nil))
	if err != nil {
		return h.mapError(c, "create book", err)
	}
	return c.JSON(http.StatusCreated, util.Data("book", toBookResponse(created)))
}

func (h *BookHandler) list(c echo.Context) error {
	subject, ok := CurrentSubject(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	filter, err := parseBookFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	result, err := h.books.List(c.Request().Context(), subject, filter, page, pageSize)
	if err != nil {
		return h.mapError(c, "list books", err)
	}
	return c.JSON(http.StatusOK, toBookListResponse(result))
}

func (h *BookHandler) get(c echo.Context) error {
	subject, id, ok := h.subjectAndID(c)
	if !ok {
		return nil
	}

	book, err := h.books.Get(c.Request().Context(), subject, id)
	if err != nil {
		return h.mapError(c, "get book", err)
	}
	return c.JSON(http.StatusOK, util.Data("book", toBookResponse(book)))
}

func (h *BookHandler) update(c echo.Context) error {
	subject, id, ok := h.subjectAndID(c)
	if !ok {
		return nil
	}

	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	updated, err := h.books.Update(c.Request().Context(), subject, req.toDomain(id))
	if err != nil {
		return h.mapError(c, "update book", err)
	}
	return c.JSON(http.StatusOK, util.Data("book", toBookResponse(updated)))
}

func (h *BookHandler) remove(c echo.Context) error {
	subject, id, ok := h.subjectAndID(c)
	if !ok {
		return nil
	}

	if err := h.books.Delete(c.Request().Context(), subject, id); err != nil {
		return h.mapError(c, "delete book", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookHandler) uploadCover(c echo.Context) error {
	subject, id, ok := h.subjectAndID(c)
	if !ok {
		return nil
	}

	fileHeader, err := c.FormFile(coverFormField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("an image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("could not read uploaded file"))
	}
	defer file.Close()

	upload := media.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	}

	updated, err := h.books.UploadCover(c.Request().Context(), subject, id, upload)
	if err != nil {
		return h.mapError(c, "upload cover", err)
	}
	return c.JSON(http.StatusOK, util.Data("book", toBookResponse(updated)))
}

// subjectAndID writes the failure response itself; callers return nil when
// ok is false.
func (h *BookHandler) subjectAndID(c echo.Context) (service.Subject, uuid.UUID, bool) {
	subject, ok := CurrentSubject(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		return service.Subject{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("book_id"))
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, util.Error("invalid book id"))
		return service.Subject{}, uuid.Nil, false
	}
	return subject, id, true
}

func (h *BookHandler) mapError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		return c.JSON(http.StatusNotFound, util.Error("book not found"))
	case errors.Is(err, service.ErrBookInvalid):
		return c.JSON(http.StatusBadRequest, util.Error("title and author are required"))
	case errors.Is(err, service.ErrCoverNotAllowed):
		return c.JSON(http.StatusBadRequest, util.Error("cover image rejected"))
	default:
		c.Logger().Errorf("%s: %v", op, err)
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}

func parseBookFilter(c echo.Context) (domain.BookFilter, error) {
	filter := domain.BookFilter{
		Title:  strings.TrimSpace(c.QueryParam("title")),
		Author: strings.TrimSpace(c.QueryParam("author")),
		ISBN:   strings.TrimSpace(c.QueryParam("isbn")),
	}

	if raw := strings.TrimSpace(c.QueryParam("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return domain.BookFilter{}, errors.New("year must be an integer")
		}
		filter.Year = &year
	}

	switch sort := domain.BookSort(strings.TrimSpace(c.QueryParam("sort"))); sort {
	case "", domain.BookSortLatest:
		filter.Sort = domain.BookSortLatest
	case domain.BookSortOldest, domain.BookSortTitle:
		filter.Sort = sort
	default:
		return domain.BookFilter{}, errors.New("sort must be one of latest, oldest, az")
	}
	return filter, nil
}

func parsePagination(c echo.Context) (int, int, error) {
	page := 1
	pageSize := 0

	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
		page = parsed
	}
	if raw := strings.TrimSpace(c.QueryParam("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, 0, errors.New("page_size must be a positive integer")
		}
		pageSize = parsed
	}
	return page, pageSize, nil
}
