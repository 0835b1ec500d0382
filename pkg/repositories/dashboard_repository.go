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

// DashboardRepository defines data access for dashboards and their published
// snapshots.
type DashboardRepository interface {
	// Create inserts a new dashboard and returns it with its assigned id.
	Create(ctx context.Context, dashboard *models.Dashboard) (*models.Dashboard, error)

	// GetByID retrieves a dashboard. Returns nil when absent.
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Dashboard, error)

	// Update applies only the explicitly set fields of the partial.
	Update(ctx context.Context, id bson.ObjectID, update models.DashboardUpdate) (*models.Dashboard, error)

	// Delete removes the dashboard document. Reports whether one was removed.
	Delete(ctx context.Context, id bson.ObjectID) (bool, error)

	// Get retrieves dashboards matching the AND of the given filters.
	Get(ctx context.Context, filters []Filter) ([]*models.Dashboard, error)

	// Publish upserts the published snapshot for a dashboard. Republishing
	// replaces the previous snapshot.
	Publish(ctx context.Context, dashboardID bson.ObjectID, snapshot *models.Dashboard) (*models.PublishedDashboard, error)

	// GetPublished retrieves the published snapshot for a dashboard.
	// Returns nil when the dashboard has never been published.
	GetPublished(ctx context.Context, dashboardID bson.ObjectID) (*models.PublishedDashboard, error)

	// Unpublish removes the published snapshot for a dashboard.
	Unpublish(ctx context.Context, dashboardID bson.ObjectID) (bool, error)
}

type dashboardRepository struct {
	collection *mongo.Collection
	published  *mongo.Collection
}

// NewDashboardRepository creates a MongoDB-backed dashboard repository.
func NewDashboardRepository(db *database.Mongo) DashboardRepository {
	return &dashboardRepository{
		collection: db.Collection(database.CollectionDashboards),
		published:  db.Collection(database.CollectionPublishedDashboards),
	}
}

func (r *dashboardRepository) Create(ctx context.Context, dashboard *models.Dashboard) (*models.Dashboard, error) {
	res, err := r.collection.InsertOne(ctx, dashboard)
	if err != nil {
		return nil, apperrors.Internal("error creating dashboard: %v", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		dashboard.ID = id
	}
	return dashboard, nil
}

func (r *dashboardRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&dashboard)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error fetching dashboard: %v", err)
	}
	return &dashboard, nil
}

func (r *dashboardRepository) Update(ctx context.Context, id bson.ObjectID, update models.DashboardUpdate) (*models.Dashboard, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.ClearFolder {
		set["folder_id"] = nil
	} else if update.FolderID != nil {
		set["folder_id"] = *update.FolderID
	}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var updated models.Dashboard
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error updating dashboard: %v", err)
	}
	return &updated, nil
}

func (r *dashboardRepository) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.Internal("error deleting dashboard: %v", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *dashboardRepository) Get(ctx context.Context, filters []Filter) ([]*models.Dashboard, error) {
	match, err := buildMatch(filters)
	if err != nil {
		return nil, apperrors.Internal("error building dashboard filter: %v", err)
	}
	cursor, err := r.collection.Find(ctx, match)
	if err != nil {
		return nil, apperrors.Internal("error fetching dashboards: %v", err)
	}
	var results []*models.Dashboard
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding dashboards: %v", err)
	}
	return results, nil
}

func (r *dashboardRepository) Publish(ctx context.Context, dashboardID bson.ObjectID, snapshot *models.Dashboard) (*models.PublishedDashboard, error) {
	published := &models.PublishedDashboard{
		DashboardID: dashboardID,
		Dashboard:   *snapshot,
	}
	_, err := r.published.UpdateOne(ctx,
		bson.M{"dashboard_id": dashboardID},
		bson.M{"$set": bson.M{
			"dashboard_id": dashboardID,
			"dashboard":    snapshot,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, apperrors.Internal("error publishing dashboard: %v", err)
	}
	return published, nil
}

func (r *dashboardRepository) GetPublished(ctx context.Context, dashboardID bson.ObjectID) (*models.PublishedDashboard, error) {
	var published models.PublishedDashboard
	err := r.published.FindOne(ctx, bson.M{"dashboard_id": dashboardID}).Decode(&published)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error fetching published dashboard: %v", err)
	}
	return &published, nil
}

func (r *dashboardRepository) Unpublish(ctx context.Context, dashboardID bson.ObjectID) (bool, error) {
	res, err := r.published.DeleteOne(ctx, bson.M{"dashboard_id": dashboardID})
	if err != nil {
		return false, apperrors.Internal("error unpublishing dashboard: %v", err)
	}
	return res.DeletedCount > 0, nil
}
