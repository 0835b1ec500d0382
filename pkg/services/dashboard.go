package services

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/repositories"
)

// DashboardCreate carries the fields for creating a dashboard.
type DashboardCreate struct {
	UserID   string
	Name     string
	FolderID *bson.ObjectID
	Metadata map[string]any
}

// DashboardListParams are the optional equality filters for listing
// dashboards.
type DashboardListParams struct {
	UserID   string
	Name     string
	FolderID *bson.ObjectID
}

// DashboardService implements business rules for dashboards: folder
// validation, ownership checks, and the publish/unpublish snapshot lifecycle.
type DashboardService interface {
	Create(ctx context.Context, create DashboardCreate) (*models.Dashboard, error)
	GetByID(ctx context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error)
	Update(ctx context.Context, id bson.ObjectID, userID string, update models.DashboardUpdate) (*models.Dashboard, error)
	Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error)
	Publish(ctx context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error)
	GetPublished(ctx context.Context, id bson.ObjectID) (*models.PublishedDashboard, error)
	List(ctx context.Context, params DashboardListParams) ([]*models.Dashboard, error)
}

type dashboardService struct {
	registry repositories.Registry
	authz    *Authorizer
	logger   *zap.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(registry repositories.Registry, authz *Authorizer, logger *zap.Logger) DashboardService {
	return &dashboardService{
		registry: registry,
		authz:    authz,
		logger:   logger,
	}
}

// checkFolder validates that a target folder exists and belongs to userID.
func (s *dashboardService) checkFolder(ctx context.Context, folderID bson.ObjectID, userID string) error {
	folder, err := s.registry.Folders().GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if folder == nil {
		return apperrors.NotFound(apperrors.CodeFolderNotFound, "Could not find folder with the given id")
	}
	if folder.UserID != userID {
		return apperrors.NotAuthorized("You are not authorized to place a dashboard in this folder")
	}
	return nil
}

func (s *dashboardService) Create(ctx context.Context, create DashboardCreate) (*models.Dashboard, error) {
	if create.FolderID != nil {
		if err := s.checkFolder(ctx, *create.FolderID, create.UserID); err != nil {
			return nil, err
		}
	}

	metadata := create.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	dashboard := &models.Dashboard{
		UserID:   create.UserID,
		Name:     create.Name,
		FolderID: create.FolderID,
		Metadata: metadata,
	}
	created, err := s.registry.Dashboards().Create(ctx, dashboard)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created dashboard",
		zap.String("id", created.ID.Hex()),
		zap.String("user_id", created.UserID),
	)
	return created, nil
}

// getOwned fetches a dashboard and enforces ownership.
func (s *dashboardService) getOwned(ctx context.Context, id bson.ObjectID, userID, action string) (*models.Dashboard, error) {
	dashboard, err := s.registry.Dashboards().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dashboard == nil {
		return nil, apperrors.NotFound(apperrors.CodeDashboardNotFound, "Could not find dashboard with the given id")
	}
	if !s.authz.IsOwner(dashboard.UserID, Requester{UserID: userID}) {
		return nil, apperrors.NotAuthorized("You are not authorized to " + action + " this dashboard")
	}
	return dashboard, nil
}

func (s *dashboardService) GetByID(ctx context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error) {
	return s.getOwned(ctx, id, userID, "access")
}

func (s *dashboardService) Update(ctx context.Context, id bson.ObjectID, userID string, update models.DashboardUpdate) (*models.Dashboard, error) {
	if _, err := s.getOwned(ctx, id, userID, "update"); err != nil {
		return nil, err
	}
	if update.FolderID != nil && !update.ClearFolder {
		if err := s.checkFolder(ctx, *update.FolderID, userID); err != nil {
			return nil, err
		}
	}

	updated, err := s.registry.Dashboards().Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound(apperrors.CodeDashboardNotFound, "Could not find dashboard with the given id")
	}
	return updated, nil
}

// Delete removes the dashboard and its published snapshot, when one exists,
// in one transaction.
func (s *dashboardService) Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error) {
	if _, err := s.getOwned(ctx, id, userID, "delete"); err != nil {
		return false, err
	}

	err := s.registry.WithTransaction(ctx, func(txCtx context.Context, reg repositories.Registry) error {
		published, err := reg.Dashboards().GetPublished(txCtx, id)
		if err != nil {
			return err
		}
		if published != nil {
			if _, err := reg.Dashboards().Unpublish(txCtx, id); err != nil {
				return err
			}
		}
		deleted, err := reg.Dashboards().Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.Internal("dashboard %s vanished during delete", id.Hex())
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Deleted dashboard", zap.String("id", id.Hex()))
	return true, nil
}

func (s *dashboardService) Publish(ctx context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error) {
	dashboard, err := s.getOwned(ctx, id, userID, "publish")
	if err != nil {
		return nil, err
	}
	if _, err := s.registry.Dashboards().Publish(ctx, id, dashboard); err != nil {
		return nil, err
	}

	s.logger.Info("Published dashboard", zap.String("id", id.Hex()))
	return dashboard, nil
}

func (s *dashboardService) GetPublished(ctx context.Context, id bson.ObjectID) (*models.PublishedDashboard, error) {
	published, err := s.registry.Dashboards().GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	if published == nil {
		return nil, apperrors.NotFound(apperrors.CodeDashboardNotFound, "Could not find published dashboard with the given id")
	}
	return published, nil
}

func (s *dashboardService) List(ctx context.Context, params DashboardListParams) ([]*models.Dashboard, error) {
	var filters []repositories.Filter
	if params.UserID != "" {
		filters = append(filters, repositories.Eq("user_id", params.UserID))
	}
	if params.Name != "" {
		filters = append(filters, repositories.Eq("name", params.Name))
	}
	if params.FolderID != nil {
		filters = append(filters, repositories.Eq("folder_id", *params.FolderID))
	}
	return s.registry.Dashboards().Get(ctx, filters)
}
