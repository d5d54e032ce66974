package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL.
// Refresh token rows are append-only; revocation only flips state.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new refresh token repository.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a freshly minted refresh token row.
func (r *TokenRepository) Create(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.insertToken(token).ToSql()
	if err != nil {
		return fmt.Errorf("build insert token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByHash returns the token row matching the hash, in whatever state.
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.selectTokens().
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select token sql: %w", err)
	}

	return scanToken(r.exec.QueryRow(ctx, stmt, args...))
}

// Rotate revokes the presented token and inserts its successor in one
// transaction. The conditional update only matches a still-active row, so when
// two rotations race exactly one commits a successor and the other sees
// repository.ErrAlreadyRevoked.
func (r *TokenRepository) Rotate(ctx context.Context, oldTokenID string, successor domain.RefreshToken, ip string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE auth.refresh_tokens
		   SET revoked_at = $1,
		       revoked_by_ip = $2,
		       reason = $3,
		       replaced_by = $4
		 WHERE id = $5 AND revoked_at IS NULL
	`, successor.CreatedAt, nilIfEmpty(ip), domain.RevokeReasonRotated, successor.TokenHash, oldTokenID)
	if err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrAlreadyRevoked
	}

	stmt, args, err := r.insertToken(successor).ToSql()
	if err != nil {
		return fmt.Errorf("build insert successor sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert successor token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Revoke marks a single token revoked. Already revoked rows are left as they
// are so the original revocation context survives.
func (r *TokenRepository) Revoke(ctx context.Context, tokenID, ip, reason string) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE auth.refresh_tokens
		   SET revoked_at = now(),
		       revoked_by_ip = $1,
		       reason = $2
		 WHERE id = $3 AND revoked_at IS NULL
	`, nilIfEmpty(ip), reason, tokenID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrAlreadyRevoked
	}

	return nil
}

// RevokeAllForAccount revokes every active token for the account.
func (r *TokenRepository) RevokeAllForAccount(ctx context.Context, accountID, ip, reason string) (int, error) {
	ct, err := r.exec.Exec(ctx, `
		UPDATE auth.refresh_tokens
		   SET revoked_at = now(),
		       revoked_by_ip = $1,
		       reason = $2
		 WHERE account_id = $3 AND revoked_at IS NULL
	`, nilIfEmpty(ip), reason, accountID)
	if err != nil {
		return 0, fmt.Errorf("revoke account tokens: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

func (r *TokenRepository) insertToken(token domain.RefreshToken) squirrel.InsertBuilder {
	return r.builder.Insert("auth.refresh_tokens").
		Columns(
			"id",
			"account_id",
			"token_hash",
			"created_by_ip",
			"created_at",
			"expires_at",
			"revoked_at",
			"revoked_by_ip",
			"reason",
			"replaced_by",
		).
		Values(
			token.ID,
			token.AccountID,
			token.TokenHash,
			token.CreatedByIP,
			token.CreatedAt,
			token.ExpiresAt,
			optionalTime(token.RevokedAt),
			optionalString(token.RevokedByIP),
			optionalString(token.Reason),
			optionalString(token.ReplacedBy),
		)
}

func (r *TokenRepository) selectTokens() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"account_id",
		"token_hash",
		"created_by_ip",
		"created_at",
		"expires_at",
		"revoked_at",
		"revoked_by_ip",
		"reason",
		"replaced_by",
	).From("auth.refresh_tokens")
}

func scanToken(row pgx.Row) (*domain.RefreshToken, error) {
	var (
		token       domain.RefreshToken
		revokedAt   sql.NullTime
		revokedByIP sql.NullString
		reason      sql.NullString
		replacedBy  sql.NullString
	)

	if err := row.Scan(
		&token.ID,
		&token.AccountID,
		&token.TokenHash,
		&token.CreatedByIP,
		&token.CreatedAt,
		&token.ExpiresAt,
		&revokedAt,
		&revokedByIP,
		&reason,
		&replacedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	token.RevokedAt = nullableTimePtr(revokedAt)
	token.RevokedByIP = nullableStringPtr(revokedByIP)
	token.Reason = nullableStringPtr(reason)
	token.ReplacedBy = nullableStringPtr(replacedBy)

	return &token, nil
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ port.TokenRepository = (*TokenRepository)(nil)
