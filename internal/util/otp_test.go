package util

import "testing"

func TestGenerateNumericOTP(t *testing.T) {
	otp, err := GenerateNumericOTP(6)
	if err != nil {
		t.Fatalf("GenerateNumericOTP returned error: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("expected 6 digits, got %d", len(otp))
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", otp)
		}
	}
}

func TestGenerateNumericOTPDefaultsLength(t *testing.T) {
	otp, err := GenerateNumericOTP(0)
	if err != nil {
		t.Fatalf("GenerateNumericOTP returned error: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("expected default length 6, got %d", len(otp))
	}
}
