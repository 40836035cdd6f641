package http

import (
	"time"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/util"
)

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Name     string `json:"name" example:"Ann"`
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"secret1"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"secret1"`
}

// GoogleLoginRequest carries the Google ID token for sign-in.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RefreshRequest carries the refresh token being exchanged.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// PasswordResetRequest asks for a reset code.
type PasswordResetRequest struct {
	Email string `json:"email" example:"ann@example.com"`
}

// PasswordResetConfirmRequest completes a reset with the emailed code.
type PasswordResetConfirmRequest struct {
	Email       string `json:"email" example:"ann@example.com"`
	OTP         string `json:"otp" example:"482913"`
	NewPassword string `json:"new_password" example:"newpass1"`
}

// AuthUser is the sanitized user representation returned by auth endpoints.
type AuthUser struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"ann@example.com"`
	Name      string    `json:"name" example:"Ann"`
	Role      string    `json:"role" example:"user"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	Token            string    `json:"token"`
	TokenExpiresAt   time.Time `json:"token_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_token_expires_at"`
	User             *AuthUser `json:"user,omitempty"`
}

func toAuthUser(user *domain.User) *AuthUser {
	if user == nil {
		return nil
	}
	return &AuthUser{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toTokenPairResponse(pair *util.TokenPair, user *domain.User) TokenPairResponse {
	return TokenPairResponse{
		Token:            pair.AccessToken,
		TokenExpiresAt:   pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             toAuthUser(user),
	}
}
