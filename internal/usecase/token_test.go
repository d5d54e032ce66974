package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/security"
)

func TestMintAndVerifyAccessToken(t *testing.T) {
	service := NewTokenService(testConfig())
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return now })

	token, expiresAt, err := service.MintAccessToken("acc-1", []string{"admin", "teacher"})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if want := now.Add(30 * time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", expiresAt, want)
	}

	claims, err := service.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "acc-1" {
		t.Fatalf("subject = %q, want acc-1", claims.Subject)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "admin" || claims.Roles[1] != "teacher" {
		t.Fatalf("roles = %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatal("token id missing")
	}
}

func TestVerifyAccessTokenZeroSkew(t *testing.T) {
	service := NewTokenService(testConfig())
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return now })

	token, expiresAt, err := service.MintAccessToken("acc-1", nil)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// One second past expiry is already invalid; there is no grace window.
	service.WithClock(func() time.Time { return expiresAt.Add(time.Second) })
	if _, err := service.VerifyAccessToken(token); !errors.Is(err, ErrExpiredAccessToken) {
		t.Fatalf("expected ErrExpiredAccessToken, got %v", err)
	}
}

func TestVerifyAccessTokenRejectsForeignIssuer(t *testing.T) {
	foreign := testConfig()
	foreign.JWT.Issuer = "somebody-else"
	minter := NewTokenService(foreign)

	token, _, err := minter.MintAccessToken("acc-1", nil)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	verifier := NewTokenService(testConfig())
	if _, err := verifier.VerifyAccessToken(token); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestVerifyAccessTokenRejectsWrongKey(t *testing.T) {
	other := testConfig()
	other.JWT.Secret = "a-different-secret-entirely"
	minter := NewTokenService(other)

	token, _, err := minter.MintAccessToken("acc-1", nil)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	verifier := NewTokenService(testConfig())
	if _, err := verifier.VerifyAccessToken(token); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestMintRefreshToken(t *testing.T) {
	service := NewTokenService(testConfig())
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return now })

	raw, record, err := service.MintRefreshToken("acc-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// 64 random bytes base64url-encode to 86 characters.
	if len(raw) != 86 {
		t.Fatalf("raw token length = %d, want 86", len(raw))
	}
	if record.TokenHash != security.HashToken(raw) {
		t.Fatal("record hash does not match raw token")
	}
	if record.AccountID != "acc-1" || record.CreatedByIP != "203.0.113.7" {
		t.Fatalf("record metadata wrong: %+v", record)
	}
	if want := now.Add(720 * time.Hour); !record.ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", record.ExpiresAt, want)
	}
	if record.RevokedAt != nil || record.ReplacedBy != nil {
		t.Fatal("fresh token should carry no revocation state")
	}
}
