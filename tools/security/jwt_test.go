package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, expireAt, err := Generate(opts, "u10086", []string{"api"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expireAt.After(time.Now()) {
		t.Fatalf("expireAt in the past: %v", expireAt)
	}

	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID() != "u10086" {
		t.Fatalf("subject: want u10086, got %q", claims.UserID())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "u1", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatal("verify with wrong secret must fail")
	}
	if _, err := Verify(DefaultOptions([]byte("secret-a")), token+"x"); err == nil {
		t.Fatal("tampered token must fail")
	}
}

func TestVerifyRejectsUnknownAlg(t *testing.T) {
	opts := DefaultOptions([]byte("s"))
	opts.Alg = "RS256"
	if _, _, err := Generate(opts, "u1", nil); err == nil {
		t.Fatal("non-HMAC alg must be rejected")
	}
}

func TestHashPassword(t *testing.T) {
	h1 := HashPassword("hunter2", "saltA")
	h2 := HashPassword("hunter2", "saltA")
	h3 := HashPassword("hunter2", "saltB")
	if h1 != h2 {
		t.Fatal("hash must be deterministic for same salt")
	}
	if h1 == h3 {
		t.Fatal("different salts must change the hash")
	}
	if len(h1) != 64 {
		t.Fatalf("sha256 hex length: %d", len(h1))
	}
}
