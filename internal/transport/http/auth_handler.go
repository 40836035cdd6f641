package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf-app/backend/internal/service"
	"github.com/bookshelf-app/backend/internal/util"
)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *util.TokenManager
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, tokens *util.TokenManager, ratePerMinute float64) {
	handler := &AuthHandler{auth: auth, tokens: tokens}

	users := e.Group("/users")
	users.POST("/register", handler.register)

	// Credential-guessing surfaces get a per-IP throttle.
	throttled := e.Group("/users", CredentialRateLimiter(ratePerMinute))
	throttled.POST("/login", handler.login)
	throttled.POST("/google", handler.loginWithGoogle)
	throttled.POST("/forgot-password", handler.forgotPassword)
	throttled.POST("/reset-password", handler.resetPassword)

	users.POST("/refresh", handler.refresh)
	users.GET("/validate", handler.validate, RequireAuth(tokens))
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInvalid):
			return c.JSON(http.StatusBadRequest, util.Error("a valid email address is required"))
		case errors.Is(err, service.ErrPasswordTooWeak):
			return c.JSON(http.StatusBadRequest, util.Error("password must be at least 6 characters long"))
		case errors.Is(err, service.ErrEmailAlreadyUsed):
			return c.JSON(http.StatusConflict, util.Error("email already registered"))
		default:
			c.Logger().Errorf("register: %v", err)
			return c.JSON(http.StatusInternalServerError, util.Error("could not register"))
		}
	}
	return c.JSON(http.StatusCreated, util.Data("user", toAuthUser(user)))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	pair, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
		}
		c.Logger().Errorf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("could not log in"))
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair, user))
}

func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	pair, user, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
		}
		c.Logger().Errorf("google login: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("could not log in"))
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair, user))
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
		}
		c.Logger().Errorf("refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("could not refresh tokens"))
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair, nil))
}

// forgotPassword acknowledges identically for known and unknown emails, and
// even when dispatch fails, so the endpoint cannot confirm an account exists.
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		log.Printf("password reset request failed: %v", err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "If the account exists, a reset code has been sent."})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req PasswordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooWeak):
			return c.JSON(http.StatusBadRequest, util.Error("password must be at least 6 characters long"))
		case errors.Is(err, service.ErrResetOTPInvalid), errors.Is(err, service.ErrResetOTPExpired):
			// Internal logs keep the distinction; the response never does.
			log.Printf("password reset rejected: %v", err)
			return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired reset code"))
		default:
			c.Logger().Errorf("reset password: %v", err)
			return c.JSON(http.StatusInternalServerError, util.Error("could not reset password"))
		}
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "Password updated"})
}

// validate lets first-party callers check an access token and learn its
// subject. The book service does not use it; it verifies tokens locally.
func (h *AuthHandler) validate(c echo.Context) error {
	subject, ok := CurrentSubject(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"user_id": subject.UserID,
		"role":    subject.Role,
	})
}
