package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	return s
}

func TestTokenManager_RememberMeSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	persistent := openStore(t, path)
	session := NewMemoryStore()
	tm := NewTokenManager(persistent, session)

	require.NoError(t, tm.SetTokens(ctx, "access-1", "refresh-1", true))

	inSession, _ := session.Get(ctx, KeyRefreshToken)
	require.Empty(t, inSession, "remembered refresh token must not also sit in the session store")

	require.NoError(t, persistent.Close())

	// Restart: fresh session store, reopened file.
	persistent = openStore(t, path)
	defer persistent.Close()
	tm = NewTokenManager(persistent, NewMemoryStore())

	refresh, err := tm.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", refresh)

	access, err := tm.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-1", access)
}

func TestTokenManager_SessionOnlyIsLostOnRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	persistent := openStore(t, path)
	session := NewMemoryStore()
	tm := NewTokenManager(persistent, session)

	require.NoError(t, tm.SetTokens(ctx, "access-1", "refresh-1", false))

	onDisk, _ := persistent.Get(ctx, KeyRefreshToken)
	require.Empty(t, onDisk, "non-remembered refresh token must not be persisted")

	refresh, _ := tm.RefreshToken(ctx)
	require.Equal(t, "refresh-1", refresh)

	require.NoError(t, persistent.Close())

	persistent = openStore(t, path)
	defer persistent.Close()
	tm = NewTokenManager(persistent, NewMemoryStore())

	refresh, err := tm.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, refresh)
}

func TestTokenManager_NeverBothStores(t *testing.T) {
	ctx := context.Background()
	persistent, session := NewMemoryStore(), NewMemoryStore()
	tm := NewTokenManager(persistent, session)

	for _, remember := range []bool{true, false, true, false} {
		require.NoError(t, tm.SetRefreshToken(ctx, "r", remember))

		p, _ := persistent.Get(ctx, KeyRefreshToken)
		s, _ := session.Get(ctx, KeyRefreshToken)
		require.False(t, p != "" && s != "", "refresh token present in both stores (remember=%v)", remember)
		require.Equal(t, remember, p != "")

		remembered, err := tm.Remembered(ctx)
		require.NoError(t, err)
		require.Equal(t, remember, remembered)
	}
}

type failingDeleteStore struct {
	*MemoryStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("disk is read-only")
}

func TestTokenManager_ClearAttemptsEveryKey(t *testing.T) {
	ctx := context.Background()
	persistent := failingDeleteStore{NewMemoryStore()}
	session := NewMemoryStore()
	tm := NewTokenManager(persistent, session)

	require.NoError(t, session.Set(ctx, KeyRefreshToken, "r"))

	err := tm.Clear(ctx)
	require.Error(t, err)

	left, _ := session.Get(ctx, KeyRefreshToken)
	require.Empty(t, left, "session store must be cleared even when the persistent one fails")
}
