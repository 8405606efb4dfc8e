package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/community-board/internal/common/db"
	"github.com/AlibekovAA/community-board/internal/user/domain"
)

type PoolSource interface {
	Get(ctx context.Context) (*pgxpool.Pool, error)
}

type PgRepository struct {
	pools PoolSource
}

func NewPgRepository(pools PoolSource) *PgRepository {
	return &PgRepository{pools: pools}
}

const selectAccount = `SELECT id, username, email, name, password_hash, created_at, updated_at, password_changed_at FROM accounts`

func (r *PgRepository) Create(ctx context.Context, account domain.Account) error {
	pool, err := r.pools.Get(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = pool.Exec(
		ctx,
		`INSERT INTO accounts (id, username, email, name, password_hash, created_at, updated_at, password_changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6, $6)`,
		string(account.ID),
		account.Username,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.CreatedAt,
	)
	if constraint, ok := db.UniqueViolation(err); ok {
		db.MeasureQueryDuration("create_account", accountsTable, start)
		if constraint == db.AccountsEmailKey {
			return ErrEmailAlreadyExists
		}
		return ErrUsernameAlreadyExists
	}
	return db.HandleExecError(err, "create account", accountsTable, start)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	return r.findOne(ctx, "find account by username", selectAccount+` WHERE username = $1`, username)
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, "find account by email", selectAccount+` WHERE email = $1`, email)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	return r.findOne(ctx, "find account by id", selectAccount+` WHERE id = $1`, string(id))
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg any) (domain.Account, error) {
	pool, err := r.pools.Get(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	start := time.Now()
	var a domain.Account
	err = pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.Name,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.PasswordChangedAt,
	)
	if err := db.HandleQueryError(err, ErrUserNotFound, operation, accountsTable, start); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *PgRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	pool, err := r.pools.Get(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err := db.HandleQueryError(err, ErrUserNotFound, "check username", accountsTable, start); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) UpdatePassword(ctx context.Context, id domain.ID, passwordHash string, changedAt time.Time) error {
	pool, err := r.pools.Get(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	tag, err := pool.Exec(
		ctx,
		`UPDATE accounts SET password_hash = $2, password_changed_at = $3, updated_at = $3 WHERE id = $1`,
		string(id),
		passwordHash,
		changedAt,
	)
	if err := db.HandleExecError(err, "update password", accountsTable, start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ Repository = (*PgRepository)(nil)

