package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestVerifyRoundTrip(t *testing.T) {
	secret := "test-secret"
	want := Identity{
		UserID: uuid.New(),
		Email:  "pat@example.com",
		Role:   RolePatient,
	}

	token, err := Mint(secret, want, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	got, err := NewVerifier(secret).Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	id := Identity{UserID: uuid.New(), Role: RoleDoctor}

	token, err := Mint("secret-a", id, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := NewVerifier("secret-b").Verify(token); err == nil {
		t.Error("expected verification to fail with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	id := Identity{UserID: uuid.New(), Role: RoleAdmin}

	token, err := Mint("secret", id, -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := NewVerifier("secret").Verify(token); err == nil {
		t.Error("expected verification to fail for expired token")
	}
}

func TestVerifyRejectsBadRole(t *testing.T) {
	id := Identity{UserID: uuid.New(), Role: Role("ROOT")}

	token, err := Mint("secret", id, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := NewVerifier("secret").Verify(token); err == nil {
		t.Error("expected verification to fail for unknown role")
	}
}

func TestBearerTokenSources(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	if got := BearerToken(r); got != "abc123" {
		t.Errorf("header token = %q, want abc123", got)
	}

	r = httptest.NewRequest("GET", "/ws?token=xyz789", nil)
	if got := BearerToken(r); got != "xyz789" {
		t.Errorf("query token = %q, want xyz789", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic abc123")
	if got := BearerToken(r); got != "" {
		t.Errorf("non-bearer header token = %q, want empty", got)
	}
}
