package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

func newSessionFixture(t *testing.T) (*SessionService, *memTokenRepo, *captureEvents) {
	t.Helper()

	tokens := &memTokenRepo{}
	events := &captureEvents{}
	minter := NewTokenService(testConfig())
	service := NewSessionService(tokens, minter, events, nil)
	return service, tokens, events
}

func TestRotationChainKeepsExactlyOneActive(t *testing.T) {
	service, tokens, _ := newSessionFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	raw, first, err := service.Begin(ctx, "acc-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	chain := []*domain.RefreshToken{first}
	current := raw
	for i := 0; i < 4; i++ {
		record, err := service.Resolve(ctx, current, "203.0.113.7")
		if err != nil {
			t.Fatalf("resolve link %d: %v", i, err)
		}
		nextRaw, next, err := service.Rotate(ctx, record, "203.0.113.7")
		if err != nil {
			t.Fatalf("rotate link %d: %v", i, err)
		}
		chain = append(chain, next)
		current = nextRaw
	}

	if active := tokens.activeCount("acc-1", now); active != 1 {
		t.Fatalf("active tokens = %d, want exactly 1", active)
	}

	// Every predecessor is revoked with replaced_by pointing at its successor.
	for i := 0; i < len(chain)-1; i++ {
		stored := tokens.byID(chain[i].ID)
		if stored == nil {
			t.Fatalf("link %d missing", i)
		}
		if !stored.IsRevoked() {
			t.Fatalf("link %d should be revoked", i)
		}
		if stored.Reason == nil || *stored.Reason != domain.RevokeReasonRotated {
			t.Fatalf("link %d reason = %v", i, stored.Reason)
		}
		if stored.ReplacedBy == nil || *stored.ReplacedBy != chain[i+1].TokenHash {
			t.Fatalf("link %d replaced_by does not point at its successor", i)
		}
	}

	last := tokens.byID(chain[len(chain)-1].ID)
	if last == nil || !last.IsActive(now) {
		t.Fatal("chain head should be active")
	}
}

func TestReplayedTokenBurnsWholeChain(t *testing.T) {
	service, tokens, events := newSessionFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	firstRaw, _, err := service.Begin(ctx, "acc-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	record, err := service.Resolve(ctx, firstRaw, "203.0.113.7")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	secondRaw, _, err := service.Rotate(ctx, record, "203.0.113.7")
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	// Presenting the rotated-away token is a theft signal.
	if _, err := service.Resolve(ctx, firstRaw, "198.51.100.9"); !errors.Is(err, ErrSessionReplayed) {
		t.Fatalf("expected ErrSessionReplayed, got %v", err)
	}

	if active := tokens.activeCount("acc-1", now); active != 0 {
		t.Fatalf("chain should be fully revoked, %d still active", active)
	}
	if len(events.tokenReplays) != 1 {
		t.Fatalf("replay events = %d, want 1", len(events.tokenReplays))
	}
	if events.tokenReplays[0].TokensRevoked != 1 {
		t.Fatalf("tokens revoked in event = %d, want 1", events.tokenReplays[0].TokensRevoked)
	}

	// The legitimately rotated successor was a casualty too.
	if _, err := service.Resolve(ctx, secondRaw, "203.0.113.7"); !errors.Is(err, ErrSessionReplayed) {
		t.Fatalf("successor should now also be revoked, got %v", err)
	}
}

func TestExpiredTokenFailsSoftly(t *testing.T) {
	service, tokens, events := newSessionFixture(t)
	ctx := context.Background()

	raw, record, err := service.Begin(ctx, "acc-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// Move the clock past the refresh TTL without revoking anything.
	service.WithClock(func() time.Time { return record.ExpiresAt.Add(time.Minute) })

	if _, err := service.Resolve(ctx, raw, "203.0.113.7"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	// Expiry is not replay: nothing else gets revoked, no event fires.
	stored := tokens.byID(record.ID)
	if stored.IsRevoked() {
		t.Fatal("expired token must not be marked revoked")
	}
	if len(events.tokenReplays) != 0 {
		t.Fatal("expiry must not publish a replay event")
	}
}

func TestResolveUnknownToken(t *testing.T) {
	service, _, _ := newSessionFixture(t)

	if _, err := service.Resolve(context.Background(), "never-issued", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRevokeByRawTokenIsIdempotent(t *testing.T) {
	service, tokens, _ := newSessionFixture(t)
	ctx := context.Background()

	raw, record, err := service.Begin(ctx, "acc-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if err := service.RevokeByRawToken(ctx, "acc-1", raw, "203.0.113.7", domain.RevokeReasonLogout); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := service.RevokeByRawToken(ctx, "acc-1", raw, "203.0.113.7", domain.RevokeReasonLogout); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	if err := service.RevokeByRawToken(ctx, "acc-1", "unknown", "", domain.RevokeReasonLogout); err != nil {
		t.Fatalf("unknown token should be ignored, got %v", err)
	}

	// A token belonging to another account is not yours to revoke.
	if err := service.RevokeByRawToken(ctx, "acc-2", raw, "", domain.RevokeReasonLogout); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	stored := tokens.byID(record.ID)
	if stored.Reason == nil || *stored.Reason != domain.RevokeReasonLogout {
		t.Fatalf("reason = %v, want logout", stored.Reason)
	}
}
