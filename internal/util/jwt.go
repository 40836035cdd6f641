package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// ErrInvalidToken is the only verification failure exposed to callers.
// Structural, signature, kind and expiry failures all collapse into it so a
// response cannot be used to probe which check rejected the token.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Kind string `json:"kind"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenPair is the result of a login or refresh exchange.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenManager issues and verifies the signed bearer tokens shared between
// the auth and book services. Verification is local and does no I/O, which is
// what lets a trusting service authorize requests without calling back to the
// issuer.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair mints a fresh access/refresh pair for the subject. The two tokens
// differ only in TTL and the kind claim; Verify refuses one in place of the
// other.
func (m *TokenManager) IssuePair(userID uuid.UUID, role string) (*TokenPair, error) {
	access, accessExp, err := m.issue(userID, role, TokenKindAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := m.issue(userID, role, TokenKindRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *TokenManager) issue(userID uuid.UUID, role, kind string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		Kind: kind,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and the kind claim, and returns the parsed
// claims. A token is accepted strictly before its expiry instant and rejected
// at or after it.
func (m *TokenManager) Verify(tokenString, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !m.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
