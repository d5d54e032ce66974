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
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// ChallengeResult is the caller-facing outcome of a successful challenge
// request. The raw code never appears here.
type ChallengeResult struct {
	MaskedIdentifier string
	ExpirySeconds    int
	CooldownSeconds  int
	IsNewUser        bool
}

// SessionResult carries a freshly minted credential pair.
type SessionResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Account          *domain.Account
}

// AuthService is the public-facing authentication workflow: it classifies the
// account's standing, drives the OTP lifecycle, and turns a validated
// challenge into a session.
type AuthService struct {
	cfg      *config.AppConfig
	otp      *OtpService
	tokens   *TokenService
	sessions *SessionService
	devices  *DeviceService
	users    port.UserDirectory
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	otp *OtpService,
	tokens *TokenService,
	sessions *SessionService,
	devices *DeviceService,
	users port.UserDirectory,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		cfg:      cfg,
		otp:      otp,
		tokens:   tokens,
		sessions: sessions,
		devices:  devices,
		users:    users,
		events:   events,
		logger:   log,
	}
}

// RequestChallenge classifies the identifier against the directory, then
// delegates to the OTP service. Login for an unknown identifier and
// registration for a known one are rejected before any challenge exists.
func (s *AuthService) RequestChallenge(ctx context.Context, identifier string, channel domain.Channel, purpose domain.Purpose) (*ChallengeResult, error) {
	account, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	switch purpose {
	case domain.PurposeRegistration:
		if account != nil {
			return nil, ErrAccountExists
		}
	default:
		if account == nil {
			return nil, ErrAccountNotFound
		}
	}

	var accountID *string
	if account != nil {
		id := account.ID
		accountID = &id
	}

	if _, err := s.otp.RequestChallenge(ctx, identifier, channel, purpose, accountID); err != nil {
		return nil, err
	}

	return &ChallengeResult{
		MaskedIdentifier: maskIdentifier(identifier, channel),
		ExpirySeconds:    int(s.cfg.OTP.Expiry.Seconds()),
		CooldownSeconds:  int(s.cfg.OTP.ResendCooldown.Seconds()),
		IsNewUser:        account == nil,
	}, nil
}

// VerifyAndAuthenticate validates the code and, on success, resolves or
// provisions the account, records identifier verification, and starts a
// session. Deactivated accounts consume the challenge but get no session.
func (s *AuthService) VerifyAndAuthenticate(
	ctx context.Context,
	identifier, code string,
	purpose domain.Purpose,
	registration *domain.RegistrationDetails,
	device *DeviceInput,
	ip string,
) (*SessionResult, error) {
	challenge, err := s.otp.ValidateChallenge(ctx, identifier, code, purpose)
	if err != nil {
		return nil, err
	}

	account, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("resolve account: %w", err)
		}
		if purpose != domain.PurposeRegistration {
			return nil, ErrAccountNotFound
		}
		if registration == nil {
			return nil, ErrMissingRegistrationDetails
		}
		account, err = s.users.Create(ctx, *registration, identifier, challenge.Channel)
		if err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
	} else if verificationPurpose(purpose) {
		if err := s.users.MarkVerified(ctx, account.ID, challenge.Channel); err != nil {
			return nil, fmt.Errorf("mark identifier verified: %w", err)
		}
	}

	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	roles := account.Roles
	if len(roles) == 0 {
		roles, err = s.users.GetRoles(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		account.Roles = roles
	}

	result, err := s.startSession(ctx, account, roles, ip)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetLastLogin(ctx, account.ID); err != nil {
		s.logger.Warn("record last login failed", zap.String("account_id", account.ID), zap.Error(err))
	}

	deviceID := ""
	if device != nil && device.DeviceID != "" {
		deviceID = device.DeviceID
		if _, err := s.devices.RegisterOrTouch(ctx, account.ID, *device, ip); err != nil {
			s.logger.Warn("device bookkeeping failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	s.publishSessionStarted(ctx, account.ID, purpose, ip, deviceID)

	return result, nil
}

// Refresh rotates the presented refresh token and mints a new access token.
// The session service has already burned the chain by the time a replay error
// surfaces here.
func (s *AuthService) Refresh(ctx context.Context, rawToken, ip string) (*SessionResult, error) {
	current, err := s.sessions.Resolve(ctx, rawToken, ip)
	if err != nil {
		return nil, err
	}

	account, err := s.users.FindByID(ctx, current.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	newRaw, successor, err := s.sessions.Rotate(ctx, current, ip)
	if err != nil {
		return nil, err
	}

	accessToken, accessExpiry, err := s.tokens.MintAccessToken(account.ID, account.Roles)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	return &SessionResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     newRaw,
		RefreshExpiresAt: successor.ExpiresAt,
		Account:          account,
	}, nil
}

// Logout revokes a single session when a refresh token is supplied, or every
// session for the account otherwise. Idempotent either way.
func (s *AuthService) Logout(ctx context.Context, accountID, rawToken, ip string) error {
	if rawToken != "" {
		return s.sessions.RevokeByRawToken(ctx, accountID, rawToken, ip, domain.RevokeReasonLogout)
	}

	_, err := s.sessions.RevokeAllForAccount(ctx, accountID, ip, domain.RevokeReasonLogout)
	return err
}

// LogoutAll revokes every session for the account.
func (s *AuthService) LogoutAll(ctx context.Context, accountID, ip string) (int, error) {
	return s.sessions.RevokeAllForAccount(ctx, accountID, ip, domain.RevokeReasonLogoutAll)
}

func (s *AuthService) startSession(ctx context.Context, account *domain.Account, roles []string, ip string) (*SessionResult, error) {
	accessToken, accessExpiry, err := s.tokens.MintAccessToken(account.ID, roles)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	rawRefresh, record, err := s.sessions.Begin(ctx, account.ID, ip)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: record.ExpiresAt,
		Account:          account,
	}, nil
}

func (s *AuthService) publishSessionStarted(ctx context.Context, accountID string, purpose domain.Purpose, ip, deviceID string) {
	if s.events == nil {
		return
	}

	event := domain.SessionStartedEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		Purpose:   purpose,
		IP:        ip,
		DeviceID:  deviceID,
		StartedAt: time.Now().UTC(),
	}
	if err := s.events.PublishSessionStarted(ctx, event); err != nil {
		s.logger.Warn("publish session started event failed", zap.Error(err))
	}
}

func verificationPurpose(purpose domain.Purpose) bool {
	switch purpose {
	case domain.PurposeRegistration, domain.PurposeEmailVerification, domain.PurposeMobileVerification:
		return true
	}
	return false
}
