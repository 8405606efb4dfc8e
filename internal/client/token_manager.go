package client

import (
	"context"
	"errors"
	"sync"
)

// TokenManager decides where tokens live. The access token is always
// persistent. The refresh token lives in exactly one store: persistent when
// the user asked to be remembered, session otherwise.
type TokenManager struct {
	mu         sync.Mutex
	persistent Store
	session    Store
}

func NewTokenManager(persistent, session Store) *TokenManager {
	return &TokenManager{persistent: persistent, session: session}
}

func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	return m.persistent.Get(ctx, KeyAccessToken)
}

func (m *TokenManager) SetAccessToken(ctx context.Context, token string) error {
	return m.persistent.Set(ctx, KeyAccessToken, token)
}

// RefreshToken prefers the persistent store.
func (m *TokenManager) RefreshToken(ctx context.Context) (string, error) {
	token, err := m.persistent.Get(ctx, KeyRefreshToken)
	if err != nil || token != "" {
		return token, err
	}
	return m.session.Get(ctx, KeyRefreshToken)
}

// Remembered reports whether the refresh token is kept persistently.
func (m *TokenManager) Remembered(ctx context.Context) (bool, error) {
	token, err := m.persistent.Get(ctx, KeyRefreshToken)
	return token != "", err
}

func (m *TokenManager) SetRefreshToken(ctx context.Context, token string, rememberMe bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, other := m.session, m.persistent
	if rememberMe {
		target, other = m.persistent, m.session
	}
	if err := target.Set(ctx, KeyRefreshToken, token); err != nil {
		return err
	}
	return other.Delete(ctx, KeyRefreshToken)
}

func (m *TokenManager) SetTokens(ctx context.Context, access, refresh string, rememberMe bool) error {
	if err := m.SetAccessToken(ctx, access); err != nil {
		return err
	}
	return m.SetRefreshToken(ctx, refresh, rememberMe)
}

// Clear removes both tokens from both stores. Every delete is attempted;
// the failures are joined.
func (m *TokenManager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, store := range []Store{m.persistent, m.session} {
		for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
			if err := store.Delete(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
