package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessToken_RoundTrip(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if until := time.Until(at.Exp); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("expiry %v not around 15 minutes", until)
	}

	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse signed token: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
		t.Fatalf("subject claim %v, want 42", claims["sub"])
	}
}

func TestNewAccessToken_WrongSecretRejected(t *testing.T) {
	at, err := NewAccessToken("right", 1, 15)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	if err == nil && tok.Valid {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestNewRefreshToken_UniqueAndHashed(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if a.Raw == b.Raw {
		t.Fatal("two refresh tokens collided")
	}
	if len(a.Raw) != 96 {
		t.Fatalf("raw token length %d, want 96 hex chars", len(a.Raw))
	}
	if HashRefreshRaw(a.Raw) == a.Raw {
		t.Fatal("hash equals the raw value")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatal("hash is not deterministic")
	}
}
