package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/service"
	"github.com/bookshelf-app/backend/internal/util"
)

// memUserRepo is just enough of a credential store to drive the handlers.
type memUserRepo struct {
	byEmail map[string]*domain.User
}

func (r *memUserRepo) Create(ctx context.Context, name, email string, hash, salt []byte) (*domain.User, error) {
	if _, exists := r.byEmail[email]; exists {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         domain.RoleUser,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.byEmail[email] = user
	return user, nil
}

func (r *memUserRepo) UpsertGoogleUser(ctx context.Context, email, name string) (*domain.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return r.Create(ctx, name, email, nil, nil)
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt []byte) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = hash
			user.PasswordSalt = salt
			return nil
		}
	}
	return sql.ErrNoRows
}

type memResetRepo struct{}

func (memResetRepo) Create(ctx context.Context, userID uuid.UUID, hash, salt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	return &domain.PasswordReset{ID: 1, UserID: userID, OTPHash: hash, OTPSalt: salt, ExpiresAt: expiresAt}, nil
}

func (memResetRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error) {
	return nil, sql.ErrNoRows
}

func (memResetRepo) MarkConsumed(ctx context.Context, id int64) error { return nil }

func (memResetRepo) ConsumeByUser(ctx context.Context, userID uuid.UUID) error { return nil }

type noopMailer struct{}

func (noopMailer) SendPasswordReset(ctx context.Context, email, otp string) error { return nil }

func newAuthAPIForTests() *echo.Echo {
	tokens := util.NewTokenManager("test-secret", 15*time.Minute, 168*time.Hour)
	svc := service.NewAuthService(
		&memUserRepo{byEmail: make(map[string]*domain.User)},
		memResetRepo{},
		tokens,
		noopMailer{},
		"",
		15*time.Minute,
		6,
	)
	e := echo.New()
	RegisterAuth(e, svc, tokens, 1000)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthEndpoints(t *testing.T) {
	e := newAuthAPIForTests()

	t.Run("register", func(t *testing.T) {
		rec := postJSON(e, "/users/register", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body)
		}
	})

	t.Run("duplicate register", func(t *testing.T) {
		rec := postJSON(e, "/users/register", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
	})

	t.Run("register with weak password", func(t *testing.T) {
		rec := postJSON(e, "/users/register", `{"name":"Bo","email":"bo@example.com","password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})

	var tokenPair TokenPairResponse

	t.Run("login returns a usable pair", func(t *testing.T) {
		rec := postJSON(e, "/users/login", `{"email":"ann@example.com","password":"secret1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &tokenPair); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if tokenPair.Token == "" || tokenPair.RefreshToken == "" {
			t.Fatal("token pair incomplete")
		}
		if tokenPair.User == nil || tokenPair.User.Email != "ann@example.com" {
			t.Fatalf("user missing from login response: %+v", tokenPair.User)
		}
	})

	t.Run("login failures share one response", func(t *testing.T) {
		wrongPassword := postJSON(e, "/users/login", `{"email":"ann@example.com","password":"nope-not-it"}`)
		unknownEmail := postJSON(e, "/users/login", `{"email":"ghost@example.com","password":"secret1"}`)
		if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
			t.Fatalf("statuses %d/%d, want 401/401", wrongPassword.Code, unknownEmail.Code)
		}
		if wrongPassword.Body.String() != unknownEmail.Body.String() {
			t.Fatal("failure responses are distinguishable")
		}
	})

	t.Run("validate accepts the issued access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/validate", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenPair.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
		}
	})

	t.Run("refresh", func(t *testing.T) {
		rec := postJSON(e, "/users/refresh", `{"refresh_token":"`+tokenPair.RefreshToken+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
		}

		accessInRefreshSlot := postJSON(e, "/users/refresh", `{"refresh_token":"`+tokenPair.Token+`"}`)
		if accessInRefreshSlot.Code != http.StatusUnauthorized {
			t.Fatalf("access token accepted for refresh: %d", accessInRefreshSlot.Code)
		}
	})

	t.Run("forgot password acknowledges for any email", func(t *testing.T) {
		known := postJSON(e, "/users/forgot-password", `{"email":"ann@example.com"}`)
		unknown := postJSON(e, "/users/forgot-password", `{"email":"ghost@example.com"}`)
		if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
			t.Fatalf("statuses %d/%d, want 200/200", known.Code, unknown.Code)
		}
		if known.Body.String() != unknown.Body.String() {
			t.Fatal("responses reveal whether the account exists")
		}
	})
}
