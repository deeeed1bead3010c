package utils

import (
	"errors"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "alice", "admin", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Username != "alice" || claims.Role != "admin" || claims.ID != tok.ID {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 1, "bob", "user", 5)
	expired, _ := NewAccessToken("secret", 1, "bob", "user", -1)
	tests := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"garbage":      {"secret", "not.a.token"},
		"empty":        {"secret", ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("pw1234", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "pw1234") || VerifyPassword(h, "pw12345") {
		t.Fatal("VerifyPassword mismatch")
	}
}
