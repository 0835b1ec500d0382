package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// mockConnectionService is a configurable mock for handler tests. It records
// the arguments of the last call so tests can assert request decoding.
type mockConnectionService struct {
	connection *models.ConnectionWithQueries
	list       []*models.ConnectionWithQueries
	deleted    bool
	err        error

	lastCreate     services.ConnectionCreate
	lastUpdate     models.ConnectionUpdate
	lastRequester  services.Requester
	lastListParams services.ConnectionListParams
	lastID         bson.ObjectID
}

func (m *mockConnectionService) Create(_ context.Context, create services.ConnectionCreate) (*models.ConnectionWithQueries, error) {
	m.lastCreate = create
	if m.err != nil {
		return nil, m.err
	}
	return m.connection, nil
}

func (m *mockConnectionService) GetByID(_ context.Context, id bson.ObjectID, req services.Requester) (*models.ConnectionWithQueries, error) {
	m.lastID = id
	m.lastRequester = req
	if m.err != nil {
		return nil, m.err
	}
	return m.connection, nil
}

func (m *mockConnectionService) Update(_ context.Context, id bson.ObjectID, req services.Requester, update models.ConnectionUpdate) (*models.ConnectionWithQueries, error) {
	m.lastID = id
	m.lastRequester = req
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.connection, nil
}

func (m *mockConnectionService) Delete(_ context.Context, id bson.ObjectID, req services.Requester) (bool, error) {
	m.lastID = id
	m.lastRequester = req
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

func (m *mockConnectionService) List(_ context.Context, params services.ConnectionListParams) ([]*models.ConnectionWithQueries, error) {
	m.lastListParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

type mockQueryService struct {
	query   *models.Query
	full    *models.QueryWithConnection
	list    []*models.QueryWithConnection
	deleted bool
	err     error

	lastCreate     services.QueryCreate
	lastUpdate     models.QueryUpdate
	lastRequester  services.Requester
	lastUserID     string
	lastListParams services.QueryListParams
	lastID         bson.ObjectID
}

func (m *mockQueryService) Create(_ context.Context, create services.QueryCreate) (*models.Query, error) {
	m.lastCreate = create
	if m.err != nil {
		return nil, m.err
	}
	return m.query, nil
}

func (m *mockQueryService) GetByID(_ context.Context, id bson.ObjectID, req services.Requester) (*models.QueryWithConnection, error) {
	m.lastID = id
	m.lastRequester = req
	if m.err != nil {
		return nil, m.err
	}
	return m.full, nil
}

func (m *mockQueryService) Update(_ context.Context, id bson.ObjectID, userID string, update models.QueryUpdate) (*models.QueryWithConnection, error) {
	m.lastID = id
	m.lastUserID = userID
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.full, nil
}

func (m *mockQueryService) Delete(_ context.Context, id bson.ObjectID, userID string) (bool, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

func (m *mockQueryService) List(_ context.Context, params services.QueryListParams) ([]*models.QueryWithConnection, error) {
	m.lastListParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

type mockDashboardService struct {
	dashboard *models.Dashboard
	published *models.PublishedDashboard
	list      []*models.Dashboard
	deleted   bool
	err       error

	lastCreate     services.DashboardCreate
	lastUpdate     models.DashboardUpdate
	lastUserID     string
	lastListParams services.DashboardListParams
	lastID         bson.ObjectID
}

func (m *mockDashboardService) Create(_ context.Context, create services.DashboardCreate) (*models.Dashboard, error) {
	m.lastCreate = create
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) GetByID(_ context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) Update(_ context.Context, id bson.ObjectID, userID string, update models.DashboardUpdate) (*models.Dashboard, error) {
	m.lastID = id
	m.lastUserID = userID
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) Delete(_ context.Context, id bson.ObjectID, userID string) (bool, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

func (m *mockDashboardService) Publish(_ context.Context, id bson.ObjectID, userID string) (*models.Dashboard, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) GetPublished(_ context.Context, id bson.ObjectID) (*models.PublishedDashboard, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.published, nil
}

func (m *mockDashboardService) List(_ context.Context, params services.DashboardListParams) ([]*models.Dashboard, error) {
	m.lastListParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

type mockFolderService struct {
	folder  *models.FolderWithDashboards
	list    []*models.Folder
	deleted bool
	err     error

	lastCreate     services.FolderCreate
	lastUpdate     models.FolderUpdate
	lastUserID     string
	lastListParams services.FolderListParams
	lastID         bson.ObjectID
}

func (m *mockFolderService) Create(_ context.Context, create services.FolderCreate) (*models.FolderWithDashboards, error) {
	m.lastCreate = create
	if m.err != nil {
		return nil, m.err
	}
	return m.folder, nil
}

func (m *mockFolderService) GetByID(_ context.Context, id bson.ObjectID, userID string) (*models.FolderWithDashboards, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.folder, nil
}

func (m *mockFolderService) Update(_ context.Context, id bson.ObjectID, userID string, update models.FolderUpdate) (*models.FolderWithDashboards, error) {
	m.lastID = id
	m.lastUserID = userID
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.folder, nil
}

func (m *mockFolderService) Delete(_ context.Context, id bson.ObjectID, userID string) (bool, error) {
	m.lastID = id
	m.lastUserID = userID
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

func (m *mockFolderService) List(_ context.Context, params services.FolderListParams) ([]*models.Folder, error) {
	m.lastListParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}
