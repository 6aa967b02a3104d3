package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := New("s", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestIssueParse_RoundTrip(t *testing.T) {
	m, err := New("secret", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tok, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sub != "alice" {
		t.Errorf("subject = %q; want %q", sub, "alice")
	}
}

func TestParse_Rejects(t *testing.T) {
	m, _ := New("secret", time.Hour)
	other, _ := New("other", time.Hour)

	foreign, _ := other.Issue("alice")

	expired, _ := New("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _ := expired.Issue("alice")

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iss": issuer,
	}).SignedString([]byte("secret"))

	tests := map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired":       stale,
		"no subject":    noSub,
		"no expiration": noExp,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(tok)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse error = %v; want ErrInvalidToken", err)
			}
		})
	}
}
