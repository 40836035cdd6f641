package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/bookshelf-app/backend/internal/domain"
	"github.com/bookshelf-app/backend/internal/repository/ports"
	"github.com/bookshelf-app/backend/internal/util"
)

var (
	ErrEmailInvalid       = errors.New("email address is not valid")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
	ErrPasswordTooWeak    = errors.New("password does not meet the minimum policy")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetOTPInvalid    = errors.New("invalid reset code")
	ErrResetOTPExpired    = errors.New("reset code expired")
)

type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, otp string) error
}

// AuthService is the sole issuer of tokens and the sole writer of password
// and OTP state.
type AuthService struct {
	users     ports.UserRepository
	resets    ports.PasswordResetRepository
	tokens    *util.TokenManager
	mailer    PasswordResetSender
	googleAud string
	otpTTL    time.Duration
	otpLength int

	// seam for tests
	validateGoogleToken func(ctx context.Context, rawToken, audience string) (email, name string, err error)
}

func NewAuthService(
	users ports.UserRepository,
	resets ports.PasswordResetRepository,
	tokens *util.TokenManager,
	mailer PasswordResetSender,
	googleAud string,
	otpTTL time.Duration,
	otpLength int,
) *AuthService {
	return &AuthService{
		users:               users,
		resets:              resets,
		tokens:              tokens,
		mailer:              mailer,
		googleAud:           googleAud,
		otpTTL:              otpTTL,
		otpLength:           otpLength,
		validateGoogleToken: validateGoogleIDToken,
	}
}

func validateGoogleIDToken(ctx context.Context, rawToken, audience string) (string, string, error) {
	payload, err := idtoken.Validate(ctx, rawToken, audience)
	if err != nil {
		return "", "", err
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	return email, name, nil
}

// Register creates an identity with a salted one-way password hash. The
// plaintext is discarded as soon as the hash is derived.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrEmailInvalid
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, ErrPasswordTooWeak
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, fmt.Errorf("derive password: %w", err)
	}

	user, err := s.users.Create(ctx, strings.TrimSpace(name), normalized, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the password and mints a fresh access/refresh pair. Unknown
// email and wrong password collapse into the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*util.TokenPair, *domain.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, user, nil
}

// LoginWithGoogle validates a Google ID token, upserts the identity and mints
// the same token pair a password login produces.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawToken string) (*util.TokenPair, *domain.User, error) {
	email, name, err := s.validateGoogleToken(ctx, rawToken, s.googleAud)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.UpsertGoogleUser(ctx, normalized, strings.TrimSpace(name))
	if err != nil {
		return nil, nil, fmt.Errorf("upsert user: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a new pair bound to the same
// subject. An access token presented here fails the kind check. The old
// refresh token is not tracked server-side and stays valid until its natural
// expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, util.TokenKindRefresh)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	subject, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

// RequestPasswordReset issues a fresh OTP and retires any outstanding ones.
// It reports success whether or not the account exists so the endpoint cannot
// be used to enumerate registered emails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			log.Printf("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	otp, err := util.GenerateNumericOTP(s.otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, salt, err := util.DerivePassword(otp)
	if err != nil {
		return fmt.Errorf("derive otp: %w", err)
	}

	if err := s.resets.ConsumeByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("supersede resets: %w", err)
	}
	reset, err := s.resets.Create(ctx, user.ID, hash, salt, time.Now().Add(s.otpTTL))
	if err != nil {
		return fmt.Errorf("create reset: %w", err)
	}

	if s.mailer == nil {
		if markErr := s.resets.MarkConsumed(ctx, reset.ID); markErr != nil {
			log.Printf("mark reset consumed: %v", markErr)
		}
		return errors.New("password reset mailer not configured")
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, otp); err != nil {
		// Keep a failed dispatch from leaving a live code nobody received.
		if markErr := s.resets.MarkConsumed(ctx, reset.ID); markErr != nil {
			log.Printf("mark reset consumed: %v", markErr)
		}
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ConfirmPasswordReset rotates the password hash after a single-use OTP
// check. A consumed or superseded code never matches again, even before its
// expiry.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return ErrResetOTPInvalid
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return ErrResetOTPInvalid
		}
		return fmt.Errorf("find user: %w", err)
	}

	reset, err := s.resets.FindActiveByUser(ctx, user.ID, time.Now())
	if err != nil {
		if isNotFound(err) {
			return ErrResetOTPInvalid
		}
		return fmt.Errorf("find reset: %w", err)
	}
	if time.Now().After(reset.ExpiresAt) {
		if markErr := s.resets.MarkConsumed(ctx, reset.ID); markErr != nil {
			log.Printf("mark reset consumed: %v", markErr)
		}
		return ErrResetOTPExpired
	}
	if !util.VerifyPassword(otp, reset.OTPSalt, reset.OTPHash) {
		return ErrResetOTPInvalid
	}

	if err := util.ValidatePassword(newPassword); err != nil {
		return ErrPasswordTooWeak
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return fmt.Errorf("derive password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.resets.MarkConsumed(ctx, reset.ID); err != nil {
		return fmt.Errorf("mark reset consumed: %w", err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrEmailInvalid
	}
	return normalized, nil
}
