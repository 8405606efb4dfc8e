package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/constants"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

// Unique index names, shared with the Postgres constraint names.
const (
	AccountsUsernameKey = "accounts_username_key"
	AccountsEmailKey    = "accounts_email_key"
)

type MongoProvider = Lazy[*mongo.Database]

// NewMongoProvider returns a lazily connected database handle. The first
// successful connect ensures the unique indexes on accounts.
func NewMongoProvider(cfg config.DBConfig, log *logger.Logger) *MongoProvider {
	connect := func(ctx context.Context) (*mongo.Database, error) {
		opts := options.Client().
			ApplyURI(cfg.URL).
			SetServerSelectionTimeout(constants.MongoServerSelectTimeout).
			SetAppName("community-board")

		client, err := mongo.Connect(opts)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		database := client.Database(cfg.MongoDatabase)
		if err := ensureAccountIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Infof("mongodb connected: database=%s", cfg.MongoDatabase)
		return database, nil
	}

	ping := func(ctx context.Context, database *mongo.Database) error {
		return database.Client().Ping(ctx, readpref.Primary())
	}

	closeFn := func(ctx context.Context, database *mongo.Database) error {
		return database.Client().Disconnect(ctx)
	}

	return NewLazy(LazyConfig{
		Name:       "mongodb",
		Attempts:   cfg.ConnectAttempts,
		RetryDelay: cfg.RetryDelay,
		Cooldown:   cfg.Cooldown,
		Logger:     log,
	}, connect, ping, closeFn)
}

func ensureAccountIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection("accounts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(AccountsUsernameKey),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(AccountsEmailKey),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}
	return nil
}
