package util

import "testing"

func TestDeriveAndVerifyPassword(t *testing.T) {
	hash, salt, err := DerivePassword("s3cret-pass")
	if err != nil {
		t.Fatalf("DerivePassword returned error: %v", err)
	}
	if len(hash) == 0 || len(salt) == 0 {
		t.Fatalf("expected hash and salt to be populated")
	}
	if !VerifyPassword("s3cret-pass", salt, hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if VerifyPassword("wrong-pass", salt, hash) {
		t.Fatalf("expected password verification to fail for wrong password")
	}
	if VerifyPassword("s3cret-pasS", salt, hash) {
		t.Fatalf("expected password verification to fail for one-character difference")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := HashPassword("", []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error when password empty")
	}
	if _, err := HashPassword("secret", nil); err == nil {
		t.Fatalf("expected error when salt empty")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected error for password below minimum length")
	}
	if err := ValidatePassword("secret1"); err != nil {
		t.Fatalf("expected password to pass policy, got %v", err)
	}
}
