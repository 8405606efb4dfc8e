package repository

import (
	"context"
	"time"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/user/domain"
)

const accountsTable = "accounts"

var (
	ErrUserNotFound          = commonerrors.ErrUserNotFound
	ErrUsernameAlreadyExists = commonerrors.ErrUsernameAlreadyExists
	ErrEmailAlreadyExists    = commonerrors.ErrEmailAlreadyExists
)

type Repository interface {
	Create(ctx context.Context, account domain.Account) error
	FindByUsername(ctx context.Context, username string) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id domain.ID) (domain.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, id domain.ID, passwordHash string, changedAt time.Time) error
}
