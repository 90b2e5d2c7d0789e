package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHMACService_RoundTrip(t *testing.T) {
	svc := NewHMACService("secret", "jobboard", time.Minute)
	userID := uuid.New()

	tok, err := svc.GenerateAccessToken(userID, "recruiter")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c, err := svc.ValidateAccessToken(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.UserID != userID || c.Role != "recruiter" || c.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestHMACService_Expired(t *testing.T) {
	svc := NewHMACService("secret", "", time.Minute)
	base := time.Now()
	svc.now = func() time.Time { return base.Add(-2 * time.Hour) }
	tok, err := svc.GenerateAccessToken(uuid.New(), "seeker")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = func() time.Time { return base }
	if _, err := svc.ValidateAccessToken(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestHMACService_WrongSecret(t *testing.T) {
	tok, err := NewHMACService("secret-a", "", time.Minute).GenerateAccessToken(uuid.New(), "seeker")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewHMACService("secret-b", "", time.Minute).ValidateAccessToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestHMACService_WrongIssuer(t *testing.T) {
	tok, err := NewHMACService("secret", "someone-else", time.Minute).GenerateAccessToken(uuid.New(), "seeker")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewHMACService("secret", "jobboard", time.Minute).ValidateAccessToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
