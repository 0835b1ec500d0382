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

// FolderRepository defines data access for folders.
type FolderRepository interface {
	// Create inserts a new folder and returns it with its assigned id.
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)

	// GetByID retrieves a folder. Returns nil when absent.
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Folder, error)

	// Update applies only the explicitly set fields of the partial.
	Update(ctx context.Context, id bson.ObjectID, update models.FolderUpdate) (*models.Folder, error)

	// Delete removes the folder document. Reports whether one was removed.
	Delete(ctx context.Context, id bson.ObjectID) (bool, error)

	// Get retrieves folders matching the AND of the given filters.
	Get(ctx context.Context, filters []Filter) ([]*models.Folder, error)
}

type folderRepository struct {
	collection *mongo.Collection
}

// NewFolderRepository creates a MongoDB-backed folder repository.
func NewFolderRepository(db *database.Mongo) FolderRepository {
	return &folderRepository{
		collection: db.Collection(database.CollectionFolders),
	}
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	res, err := r.collection.InsertOne(ctx, folder)
	if err != nil {
		return nil, apperrors.Internal("error creating folder: %v", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		folder.ID = id
	}
	return folder, nil
}

func (r *folderRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error fetching folder: %v", err)
	}
	return &folder, nil
}

func (r *folderRepository) Update(ctx context.Context, id bson.ObjectID, update models.FolderUpdate) (*models.Folder, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var updated models.Folder
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("error updating folder: %v", err)
	}
	return &updated, nil
}

func (r *folderRepository) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.Internal("error deleting folder: %v", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *folderRepository) Get(ctx context.Context, filters []Filter) ([]*models.Folder, error) {
	match, err := buildMatch(filters)
	if err != nil {
		return nil, apperrors.Internal("error building folder filter: %v", err)
	}
	cursor, err := r.collection.Find(ctx, match)
	if err != nil {
		return nil, apperrors.Internal("error fetching folders: %v", err)
	}
	var results []*models.Folder
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperrors.Internal("error decoding folders: %v", err)
	}
	return results, nil
}
