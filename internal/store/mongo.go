package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"catalog-service/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore owns the single client shared by every repository. It is built
// once in main and closed on shutdown.
type MongoStore struct {
	cfg    config.MongoConfig
	logger *slog.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore does no I/O; the connection is opened by Connect or lazily
// by the first Collection call.
func NewMongoStore(cfg config.MongoConfig, logger *slog.Logger) *MongoStore {
	return &MongoStore{cfg: cfg, logger: logger}
}

// Connect opens the connection once; later calls return the cached database.
func (s *MongoStore) Connect(ctx context.Context) (*mongo.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if s.cfg.URI == "" {
		return nil, errors.New("mongo URI cannot be empty")
	}

	target := redactURI(s.cfg.URI)
	s.logger.Info("Connecting to MongoDB...", slog.String("uri", target), slog.String("database", s.cfg.Database))

	timeout := s.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(s.cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		s.logger.Error("Failed to connect to MongoDB", slog.String("uri", target), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		s.logger.Error("Failed to ping MongoDB", slog.String("uri", target), slog.String("error", err.Error()))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s.client = client
	s.db = client.Database(s.cfg.Database)
	s.logger.Info("Successfully connected to MongoDB.", slog.String("uri", target), slog.String("database", s.cfg.Database))
	return s.db, nil
}

// Collection returns a handle to a logical collection, connecting if needed.
func (s *MongoStore) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Ping checks that the server answers. It does not connect.
func (s *MongoStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return errors.New("mongo store is not connected")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects and clears the cached state. Closing an unconnected
// store is a no-op.
func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	s.logger.Info("Closing MongoDB connection...")
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique ones that enforce external_rating_id, username and email uniqueness.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	db, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	return ensureIndexes(ctx, db)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollectionTitles: {
			{Keys: bson.D{{Key: "external_rating_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "release_year", Value: -1}}},
			{Keys: bson.D{{Key: "external_rating_score", Value: -1}}},
			{Keys: bson.D{{Key: "genres", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		CollectionAccounts: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionCredits: {
			{Keys: bson.D{{Key: "title_id", Value: 1}}},
		},
	}
	for _, name := range []string{CollectionTitles, CollectionAccounts, CollectionCredits} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs[name]); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// redactURI hides the password of a connection string for logging.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparseable mongo uri>"
	}
	return u.Redacted()
}
