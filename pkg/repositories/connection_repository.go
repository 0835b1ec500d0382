package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/database"
	"github.com/dashkit-io/board-engine/pkg/models"
)

// ConnectionRepository defines data access for connections. Credentials pass
// through unchanged; encryption is the service layer's concern. All methods
// join an ambient transaction when the context carries a session.
type ConnectionRepository interface {
	// Create inserts a new connection and returns it with its assigned id.
	Create(ctx context.Context, conn *models.Connection) (*models.Connection, error)

	// GetByID retrieves a connection with its child queries attached.
	// Returns nil when absent.
	GetByID(ctx context.Context, id bson.ObjectID) (*models.ConnectionWithQueries, error)

	// Update applies only the explicitly set fields of the partial.
	Update(ctx context.Context, id bson.ObjectID, update models.ConnectionUpdate) (*models.Connection, error)

	// Delete removes the connection document. Reports whether one was removed.
	Delete(ctx context.Context, id bson.ObjectID) (bool, error)

	// Get retrieves connections matching the AND of the given filters, each
	// with its child queries attached.
	Get(ctx context.Context, filters []Filter) ([]*models.ConnectionWithQueries, error)
}

type connectionRepository struct {
	collection *mongo.Collection
}

// NewConnectionRepository creates a MongoDB-backed connection repository.
func NewConnectionRepository(db *database.Mongo) ConnectionRepository {
	return &connectionRepository{
		collection: db.Collection(database.CollectionConnections),
	}
}

// queriesLookup attaches a connection's child queries as a "queries" array.
func queriesLookup() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         database.CollectionQueries,
		"localField":   "_id",
		"foreignField": "connection_id",
		"as":           "queries",
	}}}
}

func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	res, err := r.collection.InsertOne(ctx, conn)
	if err != nil {
		return nil, apperrors.Internal("error creating connection: %v", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		conn.ID = id
	}
	return conn, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.ConnectionWithQueries, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
		queriesLookup(),
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("error fetching connection: %v", err)
	}
	var results []*models.ConnectionWithQueries
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding connection: %v", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *connectionRepository) Update(ctx context.Context, id bson.ObjectID, update models.ConnectionUpdate) (*models.Connection, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Credentials != nil {
		set["credentials"] = update.Credentials
	}
	if update.Variables != nil {
		set["variables"] = update.Variables
	}
	if len(set) == 0 {
		return r.getPlain(ctx, id)
	}

	var updated models.Connection
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error updating connection: %v", err)
	}
	return &updated, nil
}

func (r *connectionRepository) getPlain(ctx context.Context, id bson.ObjectID) (*models.Connection, error) {
	var conn models.Connection
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error fetching connection: %v", err)
	}
	return &conn, nil
}

func (r *connectionRepository) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.Internal("error deleting connection: %v", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *connectionRepository) Get(ctx context.Context, filters []Filter) ([]*models.ConnectionWithQueries, error) {
	match, err := buildMatch(filters)
	if err != nil {
		return nil, apperrors.Internal("error building connection filter: %v", err)
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		queriesLookup(),
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("error fetching connections: %v", err)
	}
	var results []*models.ConnectionWithQueries
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding connections: %v", err)
	}
	return results, nil
}
