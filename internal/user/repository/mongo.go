package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/AlibekovAA/community-board/internal/common/db"
	"github.com/AlibekovAA/community-board/internal/user/domain"
)

type DatabaseSource interface {
	Get(ctx context.Context) (*mongo.Database, error)
}

type accountDocument struct {
	ID                string    `bson:"_id"`
	Username          string    `bson:"username"`
	Email             string    `bson:"email"`
	Name              string    `bson:"name"`
	PasswordHash      string    `bson:"password_hash"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
	PasswordChangedAt time.Time `bson:"password_changed_at"`
}

func (d accountDocument) toDomain() domain.Account {
	return domain.Account{
		ID:                domain.ID(d.ID),
		Username:          d.Username,
		Email:             d.Email,
		Name:              d.Name,
		PasswordHash:      d.PasswordHash,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		PasswordChangedAt: d.PasswordChangedAt,
	}
}

// MongoRepository stores accounts in the "accounts" collection, keyed by the
// account id.
type MongoRepository struct {
	databases DatabaseSource
}

func NewMongoRepository(databases DatabaseSource) *MongoRepository {
	return &MongoRepository{databases: databases}
}

func (r *MongoRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	database, err := r.databases.Get(ctx)
	if err != nil {
		return nil, err
	}
	return database.Collection(accountsTable), nil
}

func (r *MongoRepository) Create(ctx context.Context, account domain.Account) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = coll.InsertOne(ctx, accountDocument{
		ID:                string(account.ID),
		Username:          account.Username,
		Email:             account.Email,
		Name:              account.Name,
		PasswordHash:      account.PasswordHash,
		CreatedAt:         account.CreatedAt,
		UpdatedAt:         account.CreatedAt,
		PasswordChangedAt: account.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		db.MeasureQueryDuration("create_account", accountsTable, start)
		switch {
		case strings.Contains(err.Error(), db.AccountsEmailKey):
			return ErrEmailAlreadyExists
		case strings.Contains(err.Error(), db.AccountsUsernameKey):
			return ErrUsernameAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return db.HandleExecError(err, "create account", accountsTable, start)
}

func (r *MongoRepository) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	return r.findOne(ctx, "find account by username", bson.D{{Key: "username", Value: username}})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, "find account by email", bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepository) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	return r.findOne(ctx, "find account by id", bson.D{{Key: "_id", Value: string(id)}})
}

func (r *MongoRepository) findOne(ctx context.Context, operation string, filter bson.D) (domain.Account, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	start := time.Now()
	var doc accountDocument
	err = coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		db.MeasureQueryDuration(operation, accountsTable, start)
		return domain.Account{}, ErrUserNotFound
	}
	if err := db.HandleExecError(err, operation, accountsTable, start); err != nil {
		return domain.Account{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	count, err := coll.CountDocuments(ctx, bson.D{{Key: "username", Value: username}})
	if err := db.HandleExecError(err, "check username", accountsTable, start); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id domain.ID, passwordHash string, changedAt time.Time) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := coll.UpdateByID(ctx, string(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "password_changed_at", Value: changedAt},
		{Key: "updated_at", Value: changedAt},
	}}})
	if err := db.HandleExecError(err, "update password", accountsTable, start); err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update password %s: %w", id, ErrUserNotFound)
	}
	return nil
}

var _ Repository = (*MongoRepository)(nil)
