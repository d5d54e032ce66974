package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishChallengeIssued logs auth.challenge.issued events.
func (p *StubPublisher) PublishChallengeIssued(_ context.Context, event domain.ChallengeIssuedEvent) error {
	p.logEvent("auth.challenge.issued", "", event.IssuedAt, event)
	return nil
}

// PublishSessionStarted logs auth.session.started events.
func (p *StubPublisher) PublishSessionStarted(_ context.Context, event domain.SessionStartedEvent) error {
	p.logEvent("auth.session.started", event.AccountID, event.StartedAt, event)
	return nil
}

// PublishTokenReplay logs auth.token.replayed events.
func (p *StubPublisher) PublishTokenReplay(_ context.Context, event domain.TokenReplayEvent) error {
	p.logEvent("auth.token.replayed", event.AccountID, event.DetectedAt, event)
	return nil
}

// PublishSessionsRevoked logs auth.sessions.revoked events.
func (p *StubPublisher) PublishSessionsRevoked(_ context.Context, event domain.SessionsRevokedEvent) error {
	p.logEvent("auth.sessions.revoked", event.AccountID, event.RevokedAt, event)
	return nil
}

// PublishDeviceTrusted logs auth.device.trusted events.
func (p *StubPublisher) PublishDeviceTrusted(_ context.Context, event domain.DeviceTrustedEvent) error {
	p.logEvent("auth.device.trusted", event.AccountID, event.TrustedAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
