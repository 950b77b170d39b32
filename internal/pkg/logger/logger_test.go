package logger

import (
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	log := &Logger{redact: redaction{enabled: true, salt: "s"}}

	out := log.sanitizeKVs([]interface{}{
		"refresh_token", "abc",
		"email", "learner@example.com",
		"account_id", "7d4c2f1e",
		"material_id", "m-1",
	})
	if len(out) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("refresh_token not redacted: %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("email not redacted: %v", out[3])
	}
	hashed, ok := out[5].(string)
	if !ok || len(hashed) != len("hash:")+12 || hashed[:5] != "hash:" {
		t.Fatalf("account_id not hashed: %v", out[5])
	}
	if out[7] != "m-1" {
		t.Fatalf("material_id should pass through, got %v", out[7])
	}
}

func TestSanitizeKVsDisabled(t *testing.T) {
	log := &Logger{redact: redaction{enabled: false}}
	in := []interface{}{"refresh_token", "abc"}
	out := log.sanitizeKVs(in)
	if out[1] != "abc" {
		t.Fatalf("expected passthrough when redaction disabled, got %v", out[1])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	log := &Logger{redact: redaction{enabled: true}}
	out := log.sanitizeKVs([]interface{}{"name", "unit", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestJWTLookingValuesAreMasked(t *testing.T) {
	log := &Logger{redact: redaction{enabled: true}}
	jwtish := "eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	out := log.sanitizeKVs([]interface{}{"value", jwtish})
	if out[1] != "[REDACTED]" {
		t.Fatalf("expected jwt-looking value to be masked, got %v", out[1])
	}
}
