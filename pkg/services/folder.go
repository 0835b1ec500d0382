package services

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/repositories"
)

// FolderCreate carries the fields for creating a folder.
type FolderCreate struct {
	Name   string
	UserID string
}

// FolderListParams are the optional equality filters for listing folders.
type FolderListParams struct {
	UserID string
	Name   string
}

// FolderService implements business rules for folders: ownership checks and
// the detach-on-delete cascade over child dashboards.
type FolderService interface {
	Create(ctx context.Context, create FolderCreate) (*models.FolderWithDashboards, error)
	GetByID(ctx context.Context, id bson.ObjectID, userID string) (*models.FolderWithDashboards, error)
	Update(ctx context.Context, id bson.ObjectID, userID string, update models.FolderUpdate) (*models.FolderWithDashboards, error)
	Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error)
	List(ctx context.Context, params FolderListParams) ([]*models.Folder, error)
}

type folderService struct {
	registry repositories.Registry
	authz    *Authorizer
	logger   *zap.Logger
}

// NewFolderService creates a folder service.
func NewFolderService(registry repositories.Registry, authz *Authorizer, logger *zap.Logger) FolderService {
	return &folderService{
		registry: registry,
		authz:    authz,
		logger:   logger,
	}
}

func (s *folderService) Create(ctx context.Context, create FolderCreate) (*models.FolderWithDashboards, error) {
	folder := &models.Folder{
		Name:   create.Name,
		UserID: create.UserID,
	}
	created, err := s.registry.Folders().Create(ctx, folder)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created folder",
		zap.String("id", created.ID.Hex()),
		zap.String("user_id", created.UserID),
	)
	return &models.FolderWithDashboards{
		Folder:     *created,
		Dashboards: []models.Dashboard{},
	}, nil
}

// getOwned fetches a folder and enforces ownership.
func (s *folderService) getOwned(ctx context.Context, id bson.ObjectID, userID, action string) (*models.Folder, error) {
	folder, err := s.registry.Folders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, apperrors.NotFound(apperrors.CodeFolderNotFound, "Could not find folder with the given id")
	}
	if !s.authz.IsOwner(folder.UserID, Requester{UserID: userID}) {
		return nil, apperrors.NotAuthorized("You are not authorized to " + action + " this folder")
	}
	return folder, nil
}

// childDashboards fetches the dashboards currently filed under a folder.
func (s *folderService) childDashboards(ctx context.Context, id bson.ObjectID) ([]models.Dashboard, error) {
	dashboards, err := s.registry.Dashboards().Get(ctx, []repositories.Filter{
		repositories.Eq("folder_id", id),
	})
	if err != nil {
		return nil, err
	}
	result := make([]models.Dashboard, 0, len(dashboards))
	for _, d := range dashboards {
		result = append(result, *d)
	}
	return result, nil
}

func (s *folderService) GetByID(ctx context.Context, id bson.ObjectID, userID string) (*models.FolderWithDashboards, error) {
	folder, err := s.getOwned(ctx, id, userID, "access")
	if err != nil {
		return nil, err
	}
	dashboards, err := s.childDashboards(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.FolderWithDashboards{
		Folder:     *folder,
		Dashboards: dashboards,
	}, nil
}

func (s *folderService) Update(ctx context.Context, id bson.ObjectID, userID string, update models.FolderUpdate) (*models.FolderWithDashboards, error) {
	if _, err := s.getOwned(ctx, id, userID, "update"); err != nil {
		return nil, err
	}

	updated, err := s.registry.Folders().Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound(apperrors.CodeFolderNotFound, "Could not find folder with the given id")
	}

	dashboards, err := s.childDashboards(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.FolderWithDashboards{
		Folder:     *updated,
		Dashboards: dashboards,
	}, nil
}

// Delete detaches every dashboard filed under the folder and then removes
// the folder, all in one transaction. If any detach fails nothing is deleted.
func (s *folderService) Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error) {
	if _, err := s.getOwned(ctx, id, userID, "delete"); err != nil {
		return false, err
	}

	err := s.registry.WithTransaction(ctx, func(txCtx context.Context, reg repositories.Registry) error {
		dashboards, err := reg.Dashboards().Get(txCtx, []repositories.Filter{
			repositories.Eq("folder_id", id),
		})
		if err != nil {
			return err
		}
		for _, dashboard := range dashboards {
			if _, err := reg.Dashboards().Update(txCtx, dashboard.ID, models.DashboardUpdate{
				ClearFolder: true,
			}); err != nil {
				return err
			}
		}
		deleted, err := reg.Folders().Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.Internal("folder %s vanished during delete", id.Hex())
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Deleted folder", zap.String("id", id.Hex()))
	return true, nil
}

func (s *folderService) List(ctx context.Context, params FolderListParams) ([]*models.Folder, error) {
	var filters []repositories.Filter
	if params.UserID != "" {
		filters = append(filters, repositories.Eq("user_id", params.UserID))
	}
	if params.Name != "" {
		filters = append(filters, repositories.Eq("name", params.Name))
	}
	return s.registry.Folders().Get(ctx, filters)
}
