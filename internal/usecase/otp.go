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
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/logger"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/security"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// OtpService manages the OTP challenge lifecycle: rate-limited issuance,
// delivery handoff, and single-use validation.
type OtpService struct {
	cfg        *config.AppConfig
	challenges port.ChallengeRepository
	sender     port.CodeSender
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewOtpService constructs an OtpService instance.
func NewOtpService(
	cfg *config.AppConfig,
	challenges port.ChallengeRepository,
	sender port.CodeSender,
	events port.EventPublisher,
	log *zap.Logger,
) *OtpService {
	if log == nil {
		log = zap.NewNop()
	}

	service := &OtpService{
		cfg:        cfg,
		challenges: challenges,
		sender:     sender,
		events:     events,
		logger:     log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *OtpService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RequestChallenge generates, persists, and hands off a fresh code. The
// hourly budget and resend cooldown are enforced inside the store's create
// transaction, so concurrent requests for one identifier cannot overshoot
// them. Delivery is fire and forget: a failed handoff is logged and the
// challenge stays valid.
func (s *OtpService) RequestChallenge(ctx context.Context, identifier string, channel domain.Channel, purpose domain.Purpose, accountID *string) (*domain.OtpChallenge, error) {
	now := s.now()

	code, err := security.GenerateNumericCode(s.cfg.OTP.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := security.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	challenge := domain.OtpChallenge{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Channel:    channel,
		Purpose:    purpose,
		CodeHash:   codeHash,
		AccountID:  accountID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.OTP.Expiry),
	}

	limits := domain.ChallengeLimits{
		MaxPerHour:     s.cfg.OTP.MaxPerHour,
		ResendCooldown: s.cfg.OTP.ResendCooldown,
	}
	if err := s.challenges.Create(ctx, challenge, limits); err != nil {
		var cooldown *repository.CooldownError
		switch {
		case errors.Is(err, repository.ErrChallengeRateLimited):
			return nil, &RateLimitError{RetryAfter: time.Hour}
		case errors.As(err, &cooldown):
			return nil, &CooldownError{RetryAfter: cooldown.Remaining}
		}
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	delivered, err := s.sender.Send(ctx, identifier, channel, code)
	if err != nil {
		delivered = false
		s.logger.Error("otp delivery handoff failed",
			zap.String("identifier", maskIdentifier(identifier, channel)),
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
	}

	s.publishIssued(ctx, challenge, delivered)

	return &challenge, nil
}

// ValidateChallenge checks the code against the most recent valid challenge
// for the pair. A challenge validates successfully exactly once; once the
// attempt budget is exhausted it is dead even for the correct code.
func (s *OtpService) ValidateChallenge(ctx context.Context, identifier, code string, purpose domain.Purpose) (*domain.OtpChallenge, error) {
	now := s.now()

	challenge, err := s.challenges.FindLatestValid(ctx, identifier, purpose, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("find valid challenge: %w", err)
	}

	if challenge.Attempts >= s.cfg.OTP.MaxAttempts {
		if err := s.challenges.MarkUsed(ctx, challenge.ID); err != nil && !errors.Is(err, repository.ErrAlreadyUsed) {
			return nil, fmt.Errorf("retire exhausted challenge: %w", err)
		}
		return nil, ErrInvalidOTP
	}

	attempts, err := s.challenges.IncrementAttempts(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("increment attempts: %w", err)
	}

	match, err := security.VerifyCode(code, challenge.CodeHash)
	if err != nil {
		return nil, fmt.Errorf("verify code: %w", err)
	}
	if !match {
		if attempts >= s.cfg.OTP.MaxAttempts {
			if err := s.challenges.MarkUsed(ctx, challenge.ID); err != nil && !errors.Is(err, repository.ErrAlreadyUsed) {
				return nil, fmt.Errorf("retire exhausted challenge: %w", err)
			}
		}
		return nil, ErrInvalidOTP
	}

	// The conditional consume arbitrates concurrent validations of the same
	// challenge: the loser is told the code is invalid.
	if err := s.challenges.MarkUsed(ctx, challenge.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyUsed) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("mark challenge used: %w", err)
	}

	challenge.Attempts = attempts
	challenge.Used = true
	return challenge, nil
}

func (s *OtpService) publishIssued(ctx context.Context, challenge domain.OtpChallenge, delivered bool) {
	if s.events == nil {
		return
	}

	event := domain.ChallengeIssuedEvent{
		EventID:          uuid.NewString(),
		ChallengeID:      challenge.ID,
		MaskedIdentifier: maskIdentifier(challenge.Identifier, challenge.Channel),
		Channel:          challenge.Channel,
		Purpose:          challenge.Purpose,
		IssuedAt:         challenge.CreatedAt,
		ExpiresAt:        challenge.ExpiresAt,
		Delivered:        delivered,
	}
	if err := s.events.PublishChallengeIssued(ctx, event); err != nil {
		s.logger.Warn("publish challenge issued event failed", zap.Error(err))
	}
}

func maskIdentifier(identifier string, channel domain.Channel) string {
	if channel == domain.ChannelEmail {
		return logger.MaskEmail(identifier)
	}
	return logger.MaskMobile(identifier)
}
