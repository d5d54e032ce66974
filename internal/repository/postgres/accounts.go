package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository"
)

// AccountRepository implements port.UserDirectory over the back-office
// accounts tables.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a new account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByIdentifier resolves an account whose email or mobile matches.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Or{
			squirrel.Eq{"email": identifier},
			squirrel.Eq{"mobile": identifier},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, err
	}

	roles, err := r.GetRoles(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles

	return account, nil
}

// FindByID resolves an account by its id.
func (r *AccountRepository) FindByID(ctx context.Context, accountID string) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, err
	}

	roles, err := r.GetRoles(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles

	return account, nil
}

// Create provisions a new account from validated registration details. The
// channel the registrant proved control of starts out verified; the other
// identifier, when supplied, stays unverified until its own OTP flow runs.
func (r *AccountRepository) Create(ctx context.Context, details domain.RegistrationDetails, identifier string, channel domain.Channel) (*domain.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	account := domain.Account{
		ID:        uuid.NewString(),
		FirstName: details.FirstName,
		LastName:  details.LastName,
		Active:    true,
		Roles:     []string{details.Role},
	}
	if details.Email != "" {
		email := details.Email
		account.Email = &email
	}
	if details.Mobile != "" {
		mobile := details.Mobile
		account.Mobile = &mobile
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

	stmt, args, err := r.builder.Insert("auth.accounts").
		Columns(
			"id",
			"first_name",
			"last_name",
			"email",
			"mobile",
			"email_verified",
			"mobile_verified",
			"active",
			"created_at",
		).
		Values(
			account.ID,
			account.FirstName,
			account.LastName,
			optionalString(account.Email),
			optionalString(account.Mobile),
			account.EmailVerified,
			account.MobileVerified,
			account.Active,
			time.Now().UTC(),
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert account sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	stmt, args, err = r.builder.Insert("auth.account_roles").
		Columns("account_id", "role").
		Values(account.ID, details.Role).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert role sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("insert account role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &account, nil
}

// MarkVerified flags the channel's identifier as verified.
func (r *AccountRepository) MarkVerified(ctx context.Context, accountID string, channel domain.Channel) error {
	column := "mobile_verified"
	if channel == domain.ChannelEmail {
		column = "email_verified"
	}

	stmt, args, err := r.builder.Update("auth.accounts").
		Set(column, true).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark verified sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetLastLogin stamps the account's last successful authentication.
func (r *AccountRepository) SetLastLogin(ctx context.Context, accountID string) error {
	ct, err := r.exec.Exec(ctx, `
		UPDATE auth.accounts SET last_login = now() WHERE id = $1
	`, accountID)
	if err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetRoles returns the account's role names.
func (r *AccountRepository) GetRoles(ctx context.Context, accountID string) ([]string, error) {
	stmt, args, err := r.builder.Select("role").
		From("auth.account_roles").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("role").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

func (r *AccountRepository) selectAccounts() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"first_name",
		"last_name",
		"email",
		"mobile",
		"email_verified",
		"mobile_verified",
		"active",
		"last_login",
	).From("auth.accounts")
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		email     sql.NullString
		mobile    sql.NullString
		lastLogin sql.NullTime
	)

	if err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&email,
		&mobile,
		&account.EmailVerified,
		&account.MobileVerified,
		&account.Active,
		&lastLogin,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.Email = nullableStringPtr(email)
	account.Mobile = nullableStringPtr(mobile)
	account.LastLogin = nullableTimePtr(lastLogin)

	return &account, nil
}

var _ port.UserDirectory = (*AccountRepository)(nil)
