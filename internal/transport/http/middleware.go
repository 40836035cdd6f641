package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/bookshelf-app/backend/internal/service"
	"github.com/bookshelf-app/backend/internal/util"
)

const (
	contextSubjectKey = "auth.subject"
	contextTokenKey   = "auth.token"
)

// RequireAuth is the hard gate in front of every protected route. It verifies
// the bearer token locally (no call to the auth service) and binds the
// verified subject into the request context. Every failure mode produces the
// same 401.
func RequireAuth(tokens *util.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])

			claims, err := tokens.Verify(token, util.TokenKindAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired token"))
			}
			userID, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired token"))
			}

			c.Set(contextSubjectKey, service.Subject{UserID: userID, Role: claims.Role})
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

// CurrentSubject returns the identity bound by RequireAuth.
func CurrentSubject(c echo.Context) (service.Subject, bool) {
	subject, ok := c.Get(contextSubjectKey).(service.Subject)
	return subject, ok
}

// CredentialRateLimiter throttles credential-guessing endpoints per client IP.
func CredentialRateLimiter(perMinute float64) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perMinute / 60.0),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, util.Error("too many attempts, slow down"))
		},
	})
}
