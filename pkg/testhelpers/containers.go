package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/dashkit-io/board-engine/pkg/config"
	"github.com/dashkit-io/board-engine/pkg/database"
)

// MongoTestImage is the MongoDB image used for integration tests. Transactions
// require a replica set, so the container is started as a single-node one.
const MongoTestImage = "mongo:7"

// TestMongo holds a shared MongoDB test container and connected handle.
type TestMongo struct {
	Container *mongodb.MongoDBContainer
	DB        *database.Mongo
	URI       string
}

var (
	sharedMongo     *TestMongo
	sharedMongoOnce sync.Once
	sharedMongoErr  error
)

// GetTestMongo returns a shared single-node replica-set MongoDB container.
// The container is created once and reused across all tests in the run.
func GetTestMongo(t *testing.T) *TestMongo {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMongoOnce.Do(func() {
		sharedMongo, sharedMongoErr = setupTestMongo()
	})

	if sharedMongoErr != nil {
		t.Fatalf("Failed to setup test MongoDB: %v", sharedMongoErr)
	}

	return sharedMongo
}

func setupTestMongo() (*TestMongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := mongodb.Run(ctx, MongoTestImage, mongodb.WithReplicaSet("rs0"))
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	db, err := database.Connect(ctx, &config.DatabaseConfig{
		URI:      uri,
		Database: "board_engine_test",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &TestMongo{
		Container: container,
		DB:        db,
		URI:       uri,
	}, nil
}
