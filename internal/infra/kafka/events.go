package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishChallengeIssued publishes auth.challenge.issued events.
func (p *EventPublisher) PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error {
	return p.publish(ctx, event.EventID, "auth.challenge.issued", "", event.IssuedAt, event)
}

// PublishSessionStarted publishes auth.session.started events.
func (p *EventPublisher) PublishSessionStarted(ctx context.Context, event domain.SessionStartedEvent) error {
	return p.publish(ctx, event.EventID, "auth.session.started", event.AccountID, event.StartedAt, event)
}

// PublishTokenReplay publishes auth.token.replayed events.
func (p *EventPublisher) PublishTokenReplay(ctx context.Context, event domain.TokenReplayEvent) error {
	return p.publish(ctx, event.EventID, "auth.token.replayed", event.AccountID, event.DetectedAt, event)
}

// PublishSessionsRevoked publishes auth.sessions.revoked events.
func (p *EventPublisher) PublishSessionsRevoked(ctx context.Context, event domain.SessionsRevokedEvent) error {
	return p.publish(ctx, event.EventID, "auth.sessions.revoked", event.AccountID, event.RevokedAt, event)
}

// PublishDeviceTrusted publishes auth.device.trusted events.
func (p *EventPublisher) PublishDeviceTrusted(ctx context.Context, event domain.DeviceTrustedEvent) error {
	return p.publish(ctx, event.EventID, "auth.device.trusted", event.AccountID, event.TrustedAt, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
