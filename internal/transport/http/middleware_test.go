package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bookshelf-app/backend/internal/util"
)

func newAuthTestServer(t *testing.T, tokens *util.TokenManager) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		subject, ok := CurrentSubject(c)
		if !ok {
			t.Fatal("subject missing inside protected handler")
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": subject.UserID, "role": subject.Role})
	}, RequireAuth(tokens))
	return e
}

func doProtected(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	tokens := util.NewTokenManager("test-secret", 15*time.Minute, 168*time.Hour)
	e := newAuthTestServer(t, tokens)

	pair, err := tokens.IssuePair(uuid.New(), "user")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	t.Run("valid access token passes", func(t *testing.T) {
		rec := doProtected(e, "Bearer "+pair.AccessToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if rec := doProtected(e, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, header := range []string{"Bearer", "Token abc", pair.AccessToken} {
			if rec := doProtected(e, header); rec.Code != http.StatusUnauthorized {
				t.Fatalf("header %q: status %d, want 401", header, rec.Code)
			}
		}
	})

	t.Run("refresh token is refused on protected routes", func(t *testing.T) {
		if rec := doProtected(e, "Bearer "+pair.RefreshToken); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := util.NewTokenManager("test-secret", -time.Minute, 168*time.Hour)
		pair, err := expired.IssuePair(uuid.New(), "user")
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		if rec := doProtected(e, "Bearer "+pair.AccessToken); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		foreign := util.NewTokenManager("other-secret", 15*time.Minute, 168*time.Hour)
		pair, err := foreign.IssuePair(uuid.New(), "user")
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		if rec := doProtected(e, "Bearer "+pair.AccessToken); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})
}

func TestCredentialRateLimiterThrottles(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, CredentialRateLimiter(3))

	var last int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("10th rapid request got %d, want 429", last)
	}
}
