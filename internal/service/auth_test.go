package service

import (
	"errors"
	"testing"

	"souqly/internal/config"
	"souqly/internal/model"
)

// ============================================================================
// Token issuance and validation
// ============================================================================

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewAuthService(&config.Config{
		JWTSecret:         "test-secret",
		AccessTokenMaxAge: 3600,
	})

	token, err := svc.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatal("expected a non-empty token")
	}
	if token.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", token.ExpiresIn)
	}

	userID, err := svc.ParseAccessToken(token.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService(&config.Config{JWTSecret: "secret-a", AccessTokenMaxAge: 3600})
	verifier := NewAuthService(&config.Config{JWTSecret: "secret-b", AccessTokenMaxAge: 3600})

	token, err := issuer.GenerateAccessToken(7)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token.AccessToken); !errors.Is(err, model.ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret", AccessTokenMaxAge: -60})

	token, err := svc.GenerateAccessToken(7)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := svc.ParseAccessToken(token.AccessToken); !errors.Is(err, model.ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret", AccessTokenMaxAge: 3600})

	if _, err := svc.ParseAccessToken("not-a-jwt"); !errors.Is(err, model.ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
}
