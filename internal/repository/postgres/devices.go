package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// DeviceRepository implements port.DeviceRepository using PostgreSQL.
type DeviceRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDeviceRepository constructs a new device repository.
func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns the device keyed by (accountID, deviceID).
func (r *DeviceRepository) Get(ctx context.Context, accountID, deviceID string) (*domain.Device, error) {
	stmt, args, err := r.selectDevices().
		Where(squirrel.Eq{"account_id": accountID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select device sql: %w", err)
	}

	return scanDevice(r.exec.QueryRow(ctx, stmt, args...))
}

// Create inserts a new device row.
func (r *DeviceRepository) Create(ctx context.Context, device domain.Device) error {
	stmt, args, err := r.builder.Insert("auth.devices").
		Columns(
			"id",
			"account_id",
			"device_id",
			"name",
			"class",
			"last_ip",
			"trusted",
			"active",
			"created_at",
			"last_used_at",
			"expires_at",
		).
		Values(
			device.ID,
			device.AccountID,
			device.DeviceID,
			device.Name,
			device.Class,
			optionalString(device.LastIP),
			device.Trusted,
			device.Active,
			device.CreatedAt,
			device.LastUsedAt,
			device.ExpiresAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert device sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	return nil
}

// Touch refreshes usage metadata and slides the expiry window forward.
// Reactivates rows that were deactivated by the sweeper.
func (r *DeviceRepository) Touch(ctx context.Context, accountID, deviceID string, ip *string, lastUsedAt, expiresAt time.Time) error {
	update := r.builder.Update("auth.devices").
		Set("last_used_at", lastUsedAt).
		Set("expires_at", expiresAt).
		Set("active", true).
		Where(squirrel.Eq{"account_id": accountID, "device_id": deviceID})
	if ip != nil {
		update = update.Set("last_ip", *ip)
	}

	stmt, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build touch device sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetTrusted flags the device as trusted. Idempotent.
func (r *DeviceRepository) SetTrusted(ctx context.Context, accountID, deviceID string) error {
	return r.setFlag(ctx, accountID, deviceID, "trusted", true)
}

// Deactivate marks the device inactive.
func (r *DeviceRepository) Deactivate(ctx context.Context, accountID, deviceID string) error {
	return r.setFlag(ctx, accountID, deviceID, "active", false)
}

func (r *DeviceRepository) setFlag(ctx context.Context, accountID, deviceID, column string, value bool) error {
	stmt, args, err := r.builder.Update("auth.devices").
		Set(column, value).
		Where(squirrel.Eq{"account_id": accountID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update device sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeactivateExpired batch-deactivates devices past their sliding expiry.
func (r *DeviceRepository) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	ct, err := r.exec.Exec(ctx, `
		UPDATE auth.devices
		   SET active = FALSE
		 WHERE active = TRUE AND expires_at <= $1
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired devices: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// ListByAccount returns all device rows for the account, newest use first.
func (r *DeviceRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Device, error) {
	stmt, args, err := r.selectDevices().
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("last_used_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list devices sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return devices, nil
}

func (r *DeviceRepository) selectDevices() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"account_id",
		"device_id",
		"name",
		"class",
		"last_ip",
		"trusted",
		"active",
		"created_at",
		"last_used_at",
		"expires_at",
	).From("auth.devices")
}

func scanDevice(row pgx.Row) (*domain.Device, error) {
	var (
		device domain.Device
		lastIP sql.NullString
	)

	if err := row.Scan(
		&device.ID,
		&device.AccountID,
		&device.DeviceID,
		&device.Name,
		&device.Class,
		&lastIP,
		&device.Trusted,
		&device.Active,
		&device.CreatedAt,
		&device.LastUsedAt,
		&device.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}

	device.LastIP = nullableStringPtr(lastIP)

	return &device, nil
}

var _ port.DeviceRepository = (*DeviceRepository)(nil)
