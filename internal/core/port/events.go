package port

import (
	"context"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// EventPublisher emits security events for downstream consumers (alerting,
// audit, notification). Publish failures are logged by callers and never fail
// the originating request.
type EventPublisher interface {
	PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error
	PublishSessionStarted(ctx context.Context, event domain.SessionStartedEvent) error
	PublishTokenReplay(ctx context.Context, event domain.TokenReplayEvent) error
	PublishSessionsRevoked(ctx context.Context, event domain.SessionsRevokedEvent) error
	PublishDeviceTrusted(ctx context.Context, event domain.DeviceTrustedEvent) error
}
