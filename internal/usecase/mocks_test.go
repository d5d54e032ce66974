package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{Name: "mastermind-auth", Env: "test"},
		OTP: config.OTPSettings{
			CodeLength:     6,
			Expiry:         5 * time.Minute,
			ResendCooldown: 45 * time.Second,
			MaxPerHour:     5,
			MaxAttempts:    5,
		},
		JWT: config.JWTSettings{
			Secret:          "test-secret-used-only-in-tests",
			Issuer:          "mastermind-auth",
			Audience:        "mastermind-backoffice",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 720 * time.Hour,
		},
		Device: config.DeviceSettings{SlidingExpiry: 720 * time.Hour},
	}
}

// memChallengeRepo is an in-memory ChallengeRepository mirroring the
// transactional semantics of the real one.
type memChallengeRepo struct {
	mu         sync.Mutex
	challenges []domain.OtpChallenge
}

func (r *memChallengeRepo) Create(_ context.Context, challenge domain.OtpChallenge, limits domain.ChallengeLimits) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limits.MaxPerHour > 0 {
		count := 0
		since := challenge.CreatedAt.Add(-time.Hour)
		for _, c := range r.challenges {
			if c.Identifier == challenge.Identifier && !c.CreatedAt.Before(since) {
				count++
			}
		}
		if count >= limits.MaxPerHour {
			return repository.ErrChallengeRateLimited
		}
	}

	if limits.ResendCooldown > 0 {
		if matches := r.matching(challenge.Identifier, challenge.Purpose); len(matches) > 0 {
			if elapsed := challenge.CreatedAt.Sub(matches[0].CreatedAt); elapsed < limits.ResendCooldown {
				return &repository.CooldownError{Remaining: limits.ResendCooldown - elapsed}
			}
		}
	}

	for i := range r.challenges {
		c := &r.challenges[i]
		if c.Identifier == challenge.Identifier && c.Purpose == challenge.Purpose && !c.Used {
			c.Used = true
		}
	}
	r.challenges = append(r.challenges, challenge)
	return nil
}

func (r *memChallengeRepo) FindLatest(_ context.Context, identifier string, purpose domain.Purpose) (*domain.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := r.matching(identifier, purpose)
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := matches[0]
	return &latest, nil
}

func (r *memChallengeRepo) FindLatestValid(_ context.Context, identifier string, purpose domain.Purpose, now time.Time) (*domain.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.matching(identifier, purpose) {
		if !c.Used && c.ExpiresAt.After(now) {
			found := c
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memChallengeRepo) IncrementAttempts(_ context.Context, challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.challenges {
		if r.challenges[i].ID == challengeID {
			r.challenges[i].Attempts++
			return r.challenges[i].Attempts, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *memChallengeRepo) MarkUsed(_ context.Context, challengeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.challenges {
		if r.challenges[i].ID == challengeID {
			if r.challenges[i].Used {
				return repository.ErrAlreadyUsed
			}
			r.challenges[i].Used = true
			return nil
		}
	}
	return repository.ErrAlreadyUsed
}

func (r *memChallengeRepo) matching(identifier string, purpose domain.Purpose) []domain.OtpChallenge {
	var matches []domain.OtpChallenge
	for _, c := range r.challenges {
		if c.Identifier == identifier && c.Purpose == purpose {
			matches = append(matches, c)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

// memTokenRepo is an in-memory TokenRepository with the same conditional
// update semantics as the SQL implementation.
type memTokenRepo struct {
	mu     sync.Mutex
	tokens []domain.RefreshToken
}

func (r *memTokenRepo) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *memTokenRepo) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			found := t
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) Rotate(_ context.Context, oldTokenID string, successor domain.RefreshToken, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tokens {
		if r.tokens[i].ID != oldTokenID {
			continue
		}
		if r.tokens[i].RevokedAt != nil {
			return repository.ErrAlreadyRevoked
		}
		r.tokens[i].Revoke(successor.CreatedAt, ip, domain.RevokeReasonRotated)
		replacedBy := successor.TokenHash
		r.tokens[i].ReplacedBy = &replacedBy
		r.tokens = append(r.tokens, successor)
		return nil
	}
	return repository.ErrNotFound
}

func (r *memTokenRepo) Revoke(_ context.Context, tokenID, ip, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tokens {
		if r.tokens[i].ID == tokenID {
			if !r.tokens[i].Revoke(time.Now().UTC(), ip, reason) {
				return repository.ErrAlreadyRevoked
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memTokenRepo) RevokeAllForAccount(_ context.Context, accountID, ip, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i := range r.tokens {
		if r.tokens[i].AccountID == accountID && r.tokens[i].Revoke(time.Now().UTC(), ip, reason) {
			count++
		}
	}
	return count, nil
}

func (r *memTokenRepo) activeCount(accountID string, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, t := range r.tokens {
		if t.AccountID == accountID && t.IsActive(now) {
			count++
		}
	}
	return count
}

func (r *memTokenRepo) byID(tokenID string) *domain.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.ID == tokenID {
			found := t
			return &found
		}
	}
	return nil
}

// memDeviceRepo is an in-memory DeviceRepository.
type memDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]domain.Device
}

func deviceKey(accountID, deviceID string) string {
	return accountID + "/" + deviceID
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: make(map[string]domain.Device)}
}

func (r *memDeviceRepo) Get(_ context.Context, accountID, deviceID string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device, ok := r.devices[deviceKey(accountID, deviceID)]; ok {
		found := device
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memDeviceRepo) Create(_ context.Context, device domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceKey(device.AccountID, device.DeviceID)] = device
	return nil
}

func (r *memDeviceRepo) Touch(_ context.Context, accountID, deviceID string, ip *string, lastUsedAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey(accountID, deviceID)
	device, ok := r.devices[key]
	if !ok {
		return repository.ErrNotFound
	}
	if ip != nil {
		device.LastIP = ip
	}
	device.LastUsedAt = lastUsedAt
	device.ExpiresAt = expiresAt
	device.Active = true
	r.devices[key] = device
	return nil
}

func (r *memDeviceRepo) SetTrusted(_ context.Context, accountID, deviceID string) error {
	return r.setFlag(accountID, deviceID, func(d *domain.Device) { d.Trusted = true })
}

func (r *memDeviceRepo) Deactivate(_ context.Context, accountID, deviceID string) error {
	return r.setFlag(accountID, deviceID, func(d *domain.Device) { d.Active = false })
}

func (r *memDeviceRepo) setFlag(accountID, deviceID string, mutate func(*domain.Device)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey(accountID, deviceID)
	device, ok := r.devices[key]
	if !ok {
		return repository.ErrNotFound
	}
	mutate(&device)
	r.devices[key] = device
	return nil
}

func (r *memDeviceRepo) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key, device := range r.devices {
		if device.Active && !device.ExpiresAt.After(now) {
			device.Active = false
			r.devices[key] = device
			count++
		}
	}
	return count, nil
}

func (r *memDeviceRepo) ListByAccount(_ context.Context, accountID string) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var devices []domain.Device
	for _, device := range r.devices {
		if device.AccountID == accountID {
			devices = append(devices, device)
		}
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].LastUsedAt.After(devices[j].LastUsedAt)
	})
	return devices, nil
}

// memDirectory is an in-memory UserDirectory.
type memDirectory struct {
	mu             sync.Mutex
	accounts       map[string]domain.Account
	lastLoginCalls []string
}

func newMemDirectory(accounts ...domain.Account) *memDirectory {
	dir := &memDirectory{accounts: make(map[string]domain.Account)}
	for _, account := range accounts {
		dir.accounts[account.ID] = account
	}
	return dir
}

func (d *memDirectory) FindByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, account := range d.accounts {
		if (account.Email != nil && *account.Email == identifier) ||
			(account.Mobile != nil && *account.Mobile == identifier) {
			found := account
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (d *memDirectory) FindByID(_ context.Context, accountID string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if account, ok := d.accounts[accountID]; ok {
		found := account
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (d *memDirectory) Create(_ context.Context, details domain.RegistrationDetails, identifier string, channel domain.Channel) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	account := domain.Account{
		ID:        uuid.NewString(),
		FirstName: details.FirstName,
		LastName:  details.LastName,
		Active:    true,
		Roles:     []string{details.Role},
	}
	switch channel {
	case domain.ChannelEmail:
		email := identifier
		account.Email = &email
		account.EmailVerified = true
	case domain.ChannelMobile:
		mobile := identifier
		account.Mobile = &mobile
		account.MobileVerified = true
	}
	d.accounts[account.ID] = account

	found := account
	return &found, nil
}

func (d *memDirectory) MarkVerified(_ context.Context, accountID string, channel domain.Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	account, ok := d.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	if channel == domain.ChannelEmail {
		account.EmailVerified = true
	} else {
		account.MobileVerified = true
	}
	d.accounts[accountID] = account
	return nil
}

func (d *memDirectory) SetLastLogin(_ context.Context, accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	d.lastLoginCalls = append(d.lastLoginCalls, accountID)
	return nil
}

func (d *memDirectory) GetRoles(_ context.Context, accountID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	account, ok := d.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]string(nil), account.Roles...), nil
}

// captureSender records every code handed to it so tests can replay them.
type captureSender struct {
	mu    sync.Mutex
	codes []string
	fail  bool
}

func (s *captureSender) Send(_ context.Context, _ string, _ domain.Channel, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	if s.fail {
		return false, context.DeadlineExceeded
	}
	return true, nil
}

func (s *captureSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

// captureEvents counts published events by type.
type captureEvents struct {
	mu              sync.Mutex
	challengeIssued int
	sessionStarted  int
	tokenReplays    []domain.TokenReplayEvent
	sessionsRevoked []domain.SessionsRevokedEvent
	devicesTrusted  int
}

func (e *captureEvents) PublishChallengeIssued(_ context.Context, _ domain.ChallengeIssuedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.challengeIssued++
	return nil
}

func (e *captureEvents) PublishSessionStarted(_ context.Context, _ domain.SessionStartedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionStarted++
	return nil
}

func (e *captureEvents) PublishTokenReplay(_ context.Context, event domain.TokenReplayEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokenReplays = append(e.tokenReplays, event)
	return nil
}

func (e *captureEvents) PublishSessionsRevoked(_ context.Context, event domain.SessionsRevokedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionsRevoked = append(e.sessionsRevoked, event)
	return nil
}

func (e *captureEvents) PublishDeviceTrusted(_ context.Context, _ domain.DeviceTrustedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.devicesTrusted++
	return nil
}
