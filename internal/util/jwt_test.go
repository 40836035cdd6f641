package util

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenManagerIssueAndVerify(t *testing.T) {
	manager := NewTokenManager("top-secret", 15*time.Minute, 7*24*time.Hour)

	userID := uuid.New()
	pair, err := manager.IssuePair(userID, "user")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be non-empty")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("expected access and refresh tokens to differ")
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatal("expected refresh token to outlive access token")
	}

	claims, err := manager.Verify(pair.AccessToken, TokenKindAccess)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	subject, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID returned error: %v", err)
	}
	if subject != userID {
		t.Fatalf("expected subject %s, got %s", userID, subject)
	}
	if claims.Role != "user" {
		t.Fatalf("expected role claim 'user', got %q", claims.Role)
	}

	if _, err := manager.Verify(pair.RefreshToken, TokenKindRefresh); err != nil {
		t.Fatalf("Verify refresh returned error: %v", err)
	}
}

func TestTokenManagerKindIsolation(t *testing.T) {
	manager := NewTokenManager("top-secret", 15*time.Minute, 7*24*time.Hour)
	pair, err := manager.IssuePair(uuid.New(), "user")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := manager.Verify(pair.RefreshToken, TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for refresh token in access slot, got %v", err)
	}
	if _, err := manager.Verify(pair.AccessToken, TokenKindRefresh); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access token in refresh slot, got %v", err)
	}
}

func TestTokenManagerExpiryBoundary(t *testing.T) {
	manager := NewTokenManager("top-secret", time.Minute, time.Hour)
	pair, err := manager.IssuePair(uuid.New(), "user")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	claims, err := manager.Verify(pair.AccessToken, TokenKindAccess)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	expiresAt := claims.ExpiresAt.Time

	manager.now = func() time.Time { return expiresAt.Add(-time.Millisecond) }
	if _, err := manager.Verify(pair.AccessToken, TokenKindAccess); err != nil {
		t.Fatalf("expected token to verify 1ms before expiry, got %v", err)
	}

	manager.now = func() time.Time { return expiresAt }
	if _, err := manager.Verify(pair.AccessToken, TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken at the expiry instant, got %v", err)
	}

	manager.now = func() time.Time { return expiresAt.Add(time.Millisecond) }
	if _, err := manager.Verify(pair.AccessToken, TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken 1ms after expiry, got %v", err)
	}
}

func TestTokenManagerRejectsTamperedAndForeignTokens(t *testing.T) {
	manager := NewTokenManager("top-secret", time.Minute, time.Hour)
	pair, err := manager.IssuePair(uuid.New(), "user")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	if _, err := manager.Verify(tampered, TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	other := NewTokenManager("different-secret", time.Minute, time.Hour)
	foreign, err := other.IssuePair(uuid.New(), "user")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if _, err := manager.Verify(foreign.AccessToken, TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for token signed with another key, got %v", err)
	}

	if _, err := manager.Verify("not-a-token", TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
	if _, err := manager.Verify(strings.Repeat("a.", 3), TokenKindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage token, got %v", err)
	}
}
