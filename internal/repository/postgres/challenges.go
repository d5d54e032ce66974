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

// ChallengeRepository implements port.ChallengeRepository using PostgreSQL.
type ChallengeRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewChallengeRepository constructs a new challenge repository.
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create checks the issuance limits, invalidates all outstanding unused
// challenges for the pair, and inserts the new row in one transaction. The
// advisory lock keys on the identifier alone so the cross-purpose hourly
// budget and the at-most-one-valid invariant are both serialized under it.
func (r *ChallengeRepository) Create(ctx context.Context, challenge domain.OtpChallenge, limits domain.ChallengeLimits) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, challenge.Identifier); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	if limits.MaxPerHour > 0 {
		count, err := r.countCreatedSince(ctx, tx, challenge.Identifier, challenge.CreatedAt.Add(-time.Hour))
		if err != nil {
			return err
		}
		if count >= limits.MaxPerHour {
			return repository.ErrChallengeRateLimited
		}
	}

	if limits.ResendCooldown > 0 {
		latest, found, err := r.latestCreatedAt(ctx, tx, challenge.Identifier, challenge.Purpose)
		if err != nil {
			return err
		}
		if found {
			if elapsed := challenge.CreatedAt.Sub(latest); elapsed < limits.ResendCooldown {
				return &repository.CooldownError{Remaining: limits.ResendCooldown - elapsed}
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE auth.otp_challenges
		   SET used = TRUE
		 WHERE identifier = $1 AND purpose = $2 AND used = FALSE
	`, challenge.Identifier, challenge.Purpose); err != nil {
		return fmt.Errorf("invalidate prior challenges: %w", err)
	}

	stmt, args, err := r.builder.Insert("auth.otp_challenges").
		Columns(
			"id",
			"identifier",
			"channel",
			"purpose",
			"code_hash",
			"account_id",
			"attempts",
			"used",
			"created_at",
			"expires_at",
		).
		Values(
			challenge.ID,
			challenge.Identifier,
			challenge.Channel,
			challenge.Purpose,
			challenge.CodeHash,
			optionalString(challenge.AccountID),
			challenge.Attempts,
			challenge.Used,
			challenge.CreatedAt,
			challenge.ExpiresAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert challenge sql: %w", err)
	}

	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// FindLatestValid returns the most recent unused, unexpired challenge for the pair.
func (r *ChallengeRepository) FindLatestValid(ctx context.Context, identifier string, purpose domain.Purpose, now time.Time) (*domain.OtpChallenge, error) {
	stmt, args, err := r.selectChallenges().
		Where(squirrel.Eq{"identifier": identifier, "purpose": purpose, "used": false}).
		Where(squirrel.Gt{"expires_at": now.UTC()}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select valid challenge sql: %w", err)
	}

	return r.scanChallenge(r.exec.QueryRow(ctx, stmt, args...))
}

// countCreatedSince counts challenges created for the identifier at or after
// the supplied instant, across all purposes.
func (r *ChallengeRepository) countCreatedSince(ctx context.Context, exec pgExecutor, identifier string, since time.Time) (int, error) {
	stmt, args, err := r.builder.Select("count(*)").
		From("auth.otp_challenges").
		Where(squirrel.Eq{"identifier": identifier}).
		Where(squirrel.GtOrEq{"created_at": since.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count challenges sql: %w", err)
	}

	var count int
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count challenges: %w", err)
	}

	return count, nil
}

// latestCreatedAt returns the creation instant of the most recent challenge
// for the pair, in any state.
func (r *ChallengeRepository) latestCreatedAt(ctx context.Context, exec pgExecutor, identifier string, purpose domain.Purpose) (time.Time, bool, error) {
	stmt, args, err := r.builder.Select("created_at").
		From("auth.otp_challenges").
		Where(squirrel.Eq{"identifier": identifier, "purpose": purpose}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build latest challenge sql: %w", err)
	}

	var createdAt time.Time
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("latest challenge: %w", err)
	}

	return createdAt, true, nil
}

// IncrementAttempts atomically bumps the attempt counter and returns the new value.
func (r *ChallengeRepository) IncrementAttempts(ctx context.Context, challengeID string) (int, error) {
	var attempts int
	err := r.exec.QueryRow(ctx, `
		UPDATE auth.otp_challenges
		   SET attempts = attempts + 1
		 WHERE id = $1
		 RETURNING attempts
	`, challengeID).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment challenge attempts: %w", err)
	}

	return attempts, nil
}

// MarkUsed flags the challenge as consumed. The write is conditional on the
// row still being unused, so of two validations racing on the same challenge
// exactly one gets the row and the other gets ErrAlreadyUsed.
func (r *ChallengeRepository) MarkUsed(ctx context.Context, challengeID string) error {
	stmt, args, err := r.builder.Update("auth.otp_challenges").
		Set("used", true).
		Where(squirrel.Eq{"id": challengeID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark used sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark challenge used: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrAlreadyUsed
	}

	return nil
}

func (r *ChallengeRepository) selectChallenges() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"identifier",
		"channel",
		"purpose",
		"code_hash",
		"account_id",
		"attempts",
		"used",
		"created_at",
		"expires_at",
	).From("auth.otp_challenges")
}

func (r *ChallengeRepository) scanChallenge(row pgx.Row) (*domain.OtpChallenge, error) {
	var (
		challenge domain.OtpChallenge
		accountID sql.NullString
	)

	if err := row.Scan(
		&challenge.ID,
		&challenge.Identifier,
		&challenge.Channel,
		&challenge.Purpose,
		&challenge.CodeHash,
		&accountID,
		&challenge.Attempts,
		&challenge.Used,
		&challenge.CreatedAt,
		&challenge.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}

	challenge.AccountID = nullableStringPtr(accountID)

	return &challenge, nil
}

func optionalString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func optionalTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullableTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}

var _ port.ChallengeRepository = (*ChallengeRepository)(nil)
