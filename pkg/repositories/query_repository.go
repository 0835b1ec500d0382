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

// QueryRepository defines data access for queries.
type QueryRepository interface {
	// Create inserts a new query and returns it with its assigned id.
	Create(ctx context.Context, query *models.Query) (*models.Query, error)

	// GetByID retrieves a query with its parent connection attached.
	// Returns nil when absent.
	GetByID(ctx context.Context, id bson.ObjectID) (*models.QueryWithConnection, error)

	// Update applies only the explicitly set fields of the partial.
	Update(ctx context.Context, id bson.ObjectID, update models.QueryUpdate) (*models.Query, error)

	// Delete removes the query document. Reports whether one was removed.
	Delete(ctx context.Context, id bson.ObjectID) (bool, error)

	// Get retrieves queries matching the AND of the given filters, each with
	// its parent connection attached.
	Get(ctx context.Context, filters []Filter) ([]*models.QueryWithConnection, error)
}

type queryRepository struct {
	collection *mongo.Collection
}

// NewQueryRepository creates a MongoDB-backed query repository.
func NewQueryRepository(db *database.Mongo) QueryRepository {
	return &queryRepository{
		collection: db.Collection(database.CollectionQueries),
	}
}

// connectionLookup attaches the parent connection as a single embedded
// document. Queries whose connection is gone keep a nil connection rather
// than dropping out of the result.
func connectionLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollectionConnections,
			"localField":   "connection_id",
			"foreignField": "_id",
			"as":           "connection",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$connection",
			"preserveNullAndEmptyArrays": true,
		}}},
	}
}

func (r *queryRepository) Create(ctx context.Context, query *models.Query) (*models.Query, error) {
	res, err := r.collection.InsertOne(ctx, query)
	if err != nil {
		return nil, apperrors.Internal("error creating query: %v", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		query.ID = id
	}
	return query, nil
}

func (r *queryRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.QueryWithConnection, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
	}
	pipeline = append(pipeline, connectionLookup()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("error fetching query: %v", err)
	}
	var results []*models.QueryWithConnection
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding query: %v", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *queryRepository) Update(ctx context.Context, id bson.ObjectID, update models.QueryUpdate) (*models.Query, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}
	if len(set) == 0 {
		return r.getPlain(ctx, id)
	}

	var updated models.Query
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error updating query: %v", err)
	}
	return &updated, nil
}

func (r *queryRepository) getPlain(ctx context.Context, id bson.ObjectID) (*models.Query, error) {
	var query models.Query
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&query)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error fetching query: %v", err)
	}
	return &query, nil
}

func (r *queryRepository) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.Internal("error deleting query: %v", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *queryRepository) Get(ctx context.Context, filters []Filter) ([]*models.QueryWithConnection, error) {
	match, err := buildMatch(filters)
	if err != nil {
		return nil, apperrors.Internal("error building query filter: %v", err)
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
	}
	pipeline = append(pipeline, connectionLookup()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("error fetching queries: %v", err)
	}
	var results []*models.QueryWithConnection
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding queries: %v", err)
	}
	return results, nil
}
