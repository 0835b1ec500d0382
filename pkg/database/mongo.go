// Package database wires the MongoDB client and owns collection names and
// index bootstrap.
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dashkit-io/board-engine/pkg/config"
)

// Collection names.
const (
	CollectionConnections         = "connections"
	CollectionQueries             = "queries"
	CollectionDashboards          = "dashboards"
	CollectionFolders             = "folders"
	CollectionPublishedDashboards = "published_dashboards"
)

// Mongo holds the connected client and the application database handle.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect establishes a MongoDB connection using the given configuration and
// verifies it with a ping.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*Mongo, error) {
	opts := options.Client().ApplyURI(cfg.ConnectionURI())
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{
		Client: client,
		DB:     client.Database(cfg.Database),
	}, nil
}

// Collection returns a handle to a named collection in the application
// database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on. Safe to call at
// every startup; index creation is idempotent.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionQueries: {
			{Keys: bson.D{{Key: "connection_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollectionDashboards: {
			{Keys: bson.D{{Key: "folder_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollectionFolders: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollectionConnections: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollectionPublishedDashboards: {
			{
				Keys:    bson.D{{Key: "dashboard_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range indexes {
		if _, err := m.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
