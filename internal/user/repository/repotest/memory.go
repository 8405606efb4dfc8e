// Package repotest provides an in-memory account repository for tests.
package repotest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	commoncrypto "github.com/AlibekovAA/community-board/internal/common/crypto"
	"github.com/AlibekovAA/community-board/internal/user/domain"
	"github.com/AlibekovAA/community-board/internal/user/repository"
)

// Memory is an in-memory repository.Repository. While Err is set every call
// returns it, standing in for an unreachable database.
type Memory struct {
	mu       sync.Mutex
	accounts map[domain.ID]domain.Account
	err      error

	FindByIDFunc func(ctx context.Context, id domain.ID) (domain.Account, error)
}

var _ repository.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{accounts: make(map[domain.ID]domain.Account)}
}

func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Memory) Reset() {
	m.mu.Lock()
	m.accounts = make(map[domain.ID]domain.Account)
	m.mu.Unlock()
}

func (m *Memory) Create(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.accounts {
		if a.Username == account.Username {
			return repository.ErrUsernameAlreadyExists
		}
		if a.Email == account.Email {
			return repository.ErrEmailAlreadyExists
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *Memory) FindByUsername(_ context.Context, username string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.Username == username })
}

func (m *Memory) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.Email == email })
}

func (m *Memory) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return m.find(func(a domain.Account) bool { return a.ID == id })
}

func (m *Memory) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *Memory) UpdatePassword(_ context.Context, id domain.ID, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	a.UpdatedAt = changedAt
	m.accounts[id] = a
	return nil
}

func (m *Memory) find(match func(domain.Account) bool) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Account{}, m.err
	}
	for _, a := range m.accounts {
		if match(a) {
			return a, nil
		}
	}
	return domain.Account{}, repository.ErrUserNotFound
}

// PlainHasher stores passwords with a visible prefix. Tests only.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (PlainHasher) Compare(hash string, password string) error {
	if hash != "hashed:"+password {
		return commoncrypto.ErrPasswordMismatch
	}
	return nil
}

// SeqIDGenerator returns id-1, id-2, ...
type SeqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SeqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "id-" + strconv.Itoa(g.n), nil
}
