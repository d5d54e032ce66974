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

// DeviceInput is the client-supplied device description attached to a login.
type DeviceInput struct {
	DeviceID string
	Name     string
	Class    string
}

// DeviceService tracks known devices per account with a sliding expiry
// window. Trust is a one-way upgrade performed by a higher-privilege flow.
type DeviceService struct {
	cfg     *config.AppConfig
	devices port.DeviceRepository
	events  port.EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

// NewDeviceService constructs a DeviceService instance.
func NewDeviceService(cfg *config.AppConfig, devices port.DeviceRepository, events port.EventPublisher, log *zap.Logger) *DeviceService {
	if log == nil {
		log = zap.NewNop()
	}

	service := &DeviceService{
		cfg:     cfg,
		devices: devices,
		events:  events,
		logger:  log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *DeviceService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RegisterOrTouch refreshes an existing device's usage metadata and sliding
// expiry, reactivating it if the sweeper got there first, or records a new
// untrusted device.
func (s *DeviceService) RegisterOrTouch(ctx context.Context, accountID string, input DeviceInput, ip string) (*domain.Device, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.Device.SlidingExpiry)

	var lastIP *string
	if ip != "" {
		lastIP = &ip
	}

	existing, err := s.devices.Get(ctx, accountID, input.DeviceID)
	if err == nil {
		if err := s.devices.Touch(ctx, accountID, input.DeviceID, lastIP, now, expiresAt); err != nil {
			return nil, fmt.Errorf("touch device: %w", err)
		}
		existing.LastIP = lastIP
		existing.LastUsedAt = now
		existing.ExpiresAt = expiresAt
		existing.Active = true
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get device: %w", err)
	}

	device := domain.Device{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		DeviceID:   input.DeviceID,
		Name:       input.Name,
		Class:      input.Class,
		LastIP:     lastIP,
		Trusted:    false,
		Active:     true,
		CreatedAt:  now,
		LastUsedAt: now,
		ExpiresAt:  expiresAt,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	return &device, nil
}

// IsTrusted reports whether a usable device with trust exists for the pair.
func (s *DeviceService) IsTrusted(ctx context.Context, accountID, deviceID string) (bool, error) {
	device, err := s.devices.Get(ctx, accountID, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get device: %w", err)
	}

	return device.Trusted && device.IsUsable(s.now()), nil
}

// Trust upgrades the device to trusted. Idempotent; identity confirmation is
// the caller's responsibility.
func (s *DeviceService) Trust(ctx context.Context, accountID, deviceID string) error {
	if err := s.devices.SetTrusted(ctx, accountID, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("trust device: %w", err)
	}

	if s.events != nil {
		event := domain.DeviceTrustedEvent{
			EventID:   uuid.NewString(),
			AccountID: accountID,
			DeviceID:  deviceID,
			TrustedAt: s.now(),
		}
		if err := s.events.PublishDeviceTrusted(ctx, event); err != nil {
			s.logger.Warn("publish device trusted event failed", zap.Error(err))
		}
	}

	return nil
}

// Revoke marks the device inactive.
func (s *DeviceService) Revoke(ctx context.Context, accountID, deviceID string) error {
	if err := s.devices.Deactivate(ctx, accountID, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("revoke device: %w", err)
	}
	return nil
}

// List returns all device rows for the account, newest use first.
func (s *DeviceService) List(ctx context.Context, accountID string) ([]domain.Device, error) {
	devices, err := s.devices.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// SweepExpired batch-deactivates devices past their sliding expiry. Safe to
// run repeatedly; a second sweep finds nothing to do.
func (s *DeviceService) SweepExpired(ctx context.Context) (int, error) {
	count, err := s.devices.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired devices: %w", err)
	}

	if count > 0 {
		s.logger.Info("expired devices deactivated", zap.Int("count", count))
	}

	return count, nil
}
