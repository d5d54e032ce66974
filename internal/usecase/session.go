package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/logger"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/security"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// SessionService owns the refresh-token chain: issuance, resolution with
// replay detection, rotation, and revocation. Presenting a revoked token is
// treated as theft and burns every active token on the account.
type SessionService struct {
	tokens port.TokenRepository
	minter *TokenService
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(tokens port.TokenRepository, minter *TokenService, events port.EventPublisher, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}

	service := &SessionService{
		tokens: tokens,
		minter: minter,
		events: events,
		logger: log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Begin mints and persists the first refresh token of a new chain.
func (s *SessionService) Begin(ctx context.Context, accountID, ip string) (string, *domain.RefreshToken, error) {
	raw, record, err := s.minter.MintRefreshToken(accountID, ip)
	if err != nil {
		return "", nil, err
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return "", nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return raw, &record, nil
}

// Resolve looks up the presented raw token and applies the replay policy:
// unknown hash is a plain not-found, an expired-but-never-revoked token fails
// softly, and a revoked token triggers full-chain revocation before the
// distinguished replay error is returned.
func (s *SessionService) Resolve(ctx context.Context, rawToken, ip string) (*domain.RefreshToken, error) {
	record, err := s.tokens.GetByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if record.IsRevoked() {
		s.respondToReplay(ctx, record, ip)
		return nil, ErrSessionReplayed
	}
	if record.IsExpired(s.now()) {
		return nil, ErrSessionExpired
	}

	return record, nil
}

// Rotate atomically revokes the current token and issues its successor. A
// concurrent rotation losing the race is indistinguishable from replaying the
// token, so the loser gets the same protective treatment.
func (s *SessionService) Rotate(ctx context.Context, current *domain.RefreshToken, ip string) (string, *domain.RefreshToken, error) {
	raw, successor, err := s.minter.MintRefreshToken(current.AccountID, ip)
	if err != nil {
		return "", nil, err
	}

	if err := s.tokens.Rotate(ctx, current.ID, successor, ip); err != nil {
		if errors.Is(err, repository.ErrAlreadyRevoked) {
			s.respondToReplay(ctx, current, ip)
			return "", nil, ErrSessionReplayed
		}
		return "", nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return raw, &successor, nil
}

// RevokeOne revokes a single token. Revoking an already-dead token is not an
// error; logout stays idempotent.
func (s *SessionService) RevokeOne(ctx context.Context, tokenID, ip, reason string) error {
	if err := s.tokens.Revoke(ctx, tokenID, ip, reason); err != nil {
		if errors.Is(err, repository.ErrAlreadyRevoked) {
			return nil
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeByRawToken revokes the token matching the raw value when it belongs
// to the account. Unknown and already-revoked tokens are ignored so logout
// stays idempotent.
func (s *SessionService) RevokeByRawToken(ctx context.Context, accountID, rawToken, ip, reason string) error {
	record, err := s.tokens.GetByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if record.AccountID != accountID {
		return ErrSessionNotFound
	}

	return s.RevokeOne(ctx, record.ID, ip, reason)
}

// RevokeAllForAccount revokes every active token for the account and reports
// how many were burned.
func (s *SessionService) RevokeAllForAccount(ctx context.Context, accountID, ip, reason string) (int, error) {
	count, err := s.tokens.RevokeAllForAccount(ctx, accountID, ip, reason)
	if err != nil {
		return 0, fmt.Errorf("revoke account tokens: %w", err)
	}

	if count > 0 {
		s.publishRevoked(ctx, accountID, ip, reason, count)
	}

	return count, nil
}

func (s *SessionService) respondToReplay(ctx context.Context, presented *domain.RefreshToken, ip string) {
	count, err := s.tokens.RevokeAllForAccount(ctx, presented.AccountID, ip, domain.RevokeReasonReplay)
	if err != nil {
		s.logger.Error("chain revocation after token replay failed",
			zap.String("account_id", presented.AccountID),
			zap.String("token_id", presented.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Warn("revoked token reuse detected, chain revoked",
		zap.String("account_id", presented.AccountID),
		zap.String("token_id", presented.ID),
		zap.String("ip", logger.MaskIP(ip)),
		zap.Int("tokens_revoked", count),
	)

	if s.events != nil {
		event := domain.TokenReplayEvent{
			EventID:       uuid.NewString(),
			AccountID:     presented.AccountID,
			TokenID:       presented.ID,
			PresentedByIP: ip,
			TokensRevoked: count,
			DetectedAt:    s.now(),
		}
		if err := s.events.PublishTokenReplay(ctx, event); err != nil {
			s.logger.Warn("publish token replay event failed", zap.Error(err))
		}
	}
}

func (s *SessionService) publishRevoked(ctx context.Context, accountID, ip, reason string, count int) {
	if s.events == nil {
		return
	}

	event := domain.SessionsRevokedEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		Reason:    reason,
		Count:     count,
		IP:        ip,
		RevokedAt: s.now(),
	}
	if err := s.events.PublishSessionsRevoked(ctx, event); err != nil {
		s.logger.Warn("publish sessions revoked event failed", zap.Error(err))
	}
}
