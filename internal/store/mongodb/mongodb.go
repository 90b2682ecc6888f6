// Package mongodb is the default store backend. Accounts live in the "users"
// collection and catalog entries in "movies".
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/store"
)

const (
	usersCollection  = "users"
	moviesCollection = "movies"
)

// Store implements store.Store on MongoDB
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	movies *mongo.Collection
	logger *logrus.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB, pings it and ensures the unique indexes exist.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *logrus.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := New(client, cfg.Database, logger)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"database": cfg.Database,
	}).Info("Connected to MongoDB")

	return s, nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string, logger *logrus.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		users:  db.Collection(usersCollection),
		movies: db.Collection(moviesCollection),
		logger: logger,
		now:    time.Now,
	}
}

// EnsureIndexes creates the unique indexes on username, email and the
// upstream movie id.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = s.movies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "genres.name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create movie indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
