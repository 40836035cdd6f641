package http

import (
	"testing"
)

func TestSanitizeBodyRedactsCredentials(t *testing.T) {
	body := []byte(`{"email":"ann@example.com","password":"secret1","nested":{"refresh_token":"abc","otp":"123456"}}`)

	summary, ok := sanitizeBody(body, "application/json").(map[string]interface{})
	if !ok {
		t.Fatalf("summary is %T, want map", sanitizeBody(body, "application/json"))
	}
	if summary["email"] != "ann@example.com" {
		t.Fatalf("email mangled: %v", summary["email"])
	}
	if summary["password"] != "redacted" {
		t.Fatalf("password leaked: %v", summary["password"])
	}
	nested, ok := summary["nested"].(map[string]interface{})
	if !ok {
		t.Fatalf("nested is %T", summary["nested"])
	}
	if nested["refresh_token"] != "redacted" || nested["otp"] != "redacted" {
		t.Fatalf("nested credentials leaked: %v", nested)
	}
}

func TestSanitizeBodyNonJSON(t *testing.T) {
	t.Run("multipart is summarized by size", func(t *testing.T) {
		summary, ok := sanitizeBody([]byte("--boundary..."), "multipart/form-data; boundary=x").(map[string]interface{})
		if !ok {
			t.Fatal("want size summary for multipart")
		}
		if _, present := summary["multipart_bytes"]; !present {
			t.Fatalf("summary missing byte count: %v", summary)
		}
	})

	t.Run("empty body yields nothing", func(t *testing.T) {
		if summary := sanitizeBody(nil, "application/json"); summary != nil {
			t.Fatalf("want nil, got %v", summary)
		}
	})
}
