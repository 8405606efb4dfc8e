//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/db"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/user/domain"
)

func setupPostgres(t *testing.T) *PgRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("board"),
		postgres.WithUsername("board"),
		postgres.WithPassword("board"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	provider, err := db.NewPgProvider(ctx, config.DBConfig{
		URL:             dsn,
		Driver:          config.DriverPostgres,
		ConnectAttempts: 5,
		RetryDelay:      time.Second,
		AutoMigrate:     true,
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close(context.Background()) })

	require.NoError(t, provider.Ready(ctx))
	return NewPgRepository(provider)
}

func TestPgRepository_AccountLifecycle(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	account := domain.Account{
		ID:           "018f6d3c-0000-7000-8000-000000000001",
		Username:     "alice",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, account))

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)
	require.Equal(t, "alice@example.com", got.Email)
	require.True(t, got.PasswordChangedAt.Equal(now))

	got, err = repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	exists, err := repo.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, exists)

	dup := account
	dup.ID = "018f6d3c-0000-7000-8000-000000000002"
	dup.Email = "other@example.com"
	require.True(t, errors.Is(repo.Create(ctx, dup), ErrUsernameAlreadyExists))

	dup.Username = "bob"
	dup.Email = "alice@example.com"
	require.True(t, errors.Is(repo.Create(ctx, dup), ErrEmailAlreadyExists))

	changed := now.Add(time.Hour)
	require.NoError(t, repo.UpdatePassword(ctx, account.ID, "new-hash", changed))

	got, err = repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.True(t, got.PasswordChangedAt.Equal(changed))

	_, err = repo.FindByUsername(ctx, "nobody")
	require.True(t, errors.Is(err, ErrUserNotFound))
}
