package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor abstracts the pgx calls shared by pools and transactions.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Challenges *ChallengeRepository
	Tokens     *TokenRepository
	Devices    *DeviceRepository
	Accounts   *AccountRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Challenges: NewChallengeRepository(pool),
		Tokens:     NewTokenRepository(pool),
		Devices:    NewDeviceRepository(pool),
		Accounts:   NewAccountRepository(pool),
	}
}
