package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/crypto"
	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/repositories"
)

// Base64 of a 32-byte AES key, matching the crypto package's key format.
const testCipherKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func newTestCipher(t *testing.T) *crypto.SecretCipher {
	t.Helper()
	cipher, err := crypto.NewSecretCipher(testCipherKey)
	require.NoError(t, err)
	return cipher
}

// mockStore is the in-memory backing state shared by the mock repositories.
// published is keyed by dashboard id, mirroring the unique index.
type mockStore struct {
	connections map[bson.ObjectID]*models.Connection
	queries     map[bson.ObjectID]*models.Query
	dashboards  map[bson.ObjectID]*models.Dashboard
	folders     map[bson.ObjectID]*models.Folder
	published   map[bson.ObjectID]*models.PublishedDashboard
}

func newMockStore() *mockStore {
	return &mockStore{
		connections: map[bson.ObjectID]*models.Connection{},
		queries:     map[bson.ObjectID]*models.Query{},
		dashboards:  map[bson.ObjectID]*models.Dashboard{},
		folders:     map[bson.ObjectID]*models.Folder{},
		published:   map[bson.ObjectID]*models.PublishedDashboard{},
	}
}

func (s *mockStore) clone() *mockStore {
	out := newMockStore()
	for id, c := range s.connections {
		out.connections[id] = copyConnection(c)
	}
	for id, q := range s.queries {
		out.queries[id] = copyQuery(q)
	}
	for id, d := range s.dashboards {
		out.dashboards[id] = copyDashboard(d)
	}
	for id, f := range s.folders {
		cp := *f
		out.folders[id] = &cp
	}
	for id, p := range s.published {
		cp := *p
		cp.Dashboard = *copyDashboard(&p.Dashboard)
		out.published[id] = &cp
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyConnection(c *models.Connection) *models.Connection {
	cp := *c
	cp.Credentials = copyMap(c.Credentials)
	cp.Variables = copyMap(c.Variables)
	return &cp
}

func copyQuery(q *models.Query) *models.Query {
	cp := *q
	cp.Metadata = copyMap(q.Metadata)
	return &cp
}

func copyDashboard(d *models.Dashboard) *models.Dashboard {
	cp := *d
	if d.FolderID != nil {
		fid := *d.FolderID
		cp.FolderID = &fid
	}
	cp.Metadata = copyMap(d.Metadata)
	return &cp
}

// mockRegistry implements repositories.Registry over an in-memory store.
// WithTransaction snapshots the store and restores it when the callback
// fails, so tests can assert cascade atomicity.
type mockRegistry struct {
	store *mockStore

	connectionDeleteErr error
	queryDeleteErr      error
	dashboardUpdateErr  error
	dashboardDeleteErr  error
	folderDeleteErr     error
	unpublishErr        error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{store: newMockStore()}
}

func (r *mockRegistry) Connections() repositories.ConnectionRepository {
	return &mockConnectionRepo{reg: r}
}

func (r *mockRegistry) Queries() repositories.QueryRepository {
	return &mockQueryRepo{reg: r}
}

func (r *mockRegistry) Dashboards() repositories.DashboardRepository {
	return &mockDashboardRepo{reg: r}
}

func (r *mockRegistry) Folders() repositories.FolderRepository {
	return &mockFolderRepo{reg: r}
}

func (r *mockRegistry) WithTransaction(ctx context.Context, fn func(ctx context.Context, reg repositories.Registry) error) error {
	snapshot := r.store.clone()
	if err := fn(ctx, r); err != nil {
		r.store = snapshot
		if appErr, ok := apperrors.As(err); ok {
			return appErr
		}
		return apperrors.Internal("transaction failed: %v", err)
	}
	return nil
}

// Seed helpers assign ids and insert directly into the store.

func (r *mockRegistry) seedConnection(c *models.Connection) bson.ObjectID {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	r.store.connections[c.ID] = copyConnection(c)
	return c.ID
}

func (r *mockRegistry) seedQuery(q *models.Query) bson.ObjectID {
	if q.ID.IsZero() {
		q.ID = bson.NewObjectID()
	}
	r.store.queries[q.ID] = copyQuery(q)
	return q.ID
}

func (r *mockRegistry) seedDashboard(d *models.Dashboard) bson.ObjectID {
	if d.ID.IsZero() {
		d.ID = bson.NewObjectID()
	}
	r.store.dashboards[d.ID] = copyDashboard(d)
	return d.ID
}

func (r *mockRegistry) seedFolder(f *models.Folder) bson.ObjectID {
	if f.ID.IsZero() {
		f.ID = bson.NewObjectID()
	}
	cp := *f
	r.store.folders[f.ID] = &cp
	return f.ID
}

func eqString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case models.ConnectionType:
		return string(v), true
	}
	return "", false
}

type mockConnectionRepo struct {
	reg *mockRegistry
}

func (m *mockConnectionRepo) childQueries(id bson.ObjectID) []models.Query {
	queries := []models.Query{}
	for _, q := range m.reg.store.queries {
		if q.ConnectionID == id {
			queries = append(queries, *copyQuery(q))
		}
	}
	return queries
}

func (m *mockConnectionRepo) Create(_ context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.ID = bson.NewObjectID()
	m.reg.store.connections[conn.ID] = copyConnection(conn)
	return conn, nil
}

func (m *mockConnectionRepo) GetByID(_ context.Context, id bson.ObjectID) (*models.ConnectionWithQueries, error) {
	conn, ok := m.reg.store.connections[id]
	if !ok {
		return nil, nil
	}
	return &models.ConnectionWithQueries{
		Connection: *copyConnection(conn),
		Queries:    m.childQueries(id),
	}, nil
}

func (m *mockConnectionRepo) Update(_ context.Context, id bson.ObjectID, update models.ConnectionUpdate) (*models.Connection, error) {
	conn, ok := m.reg.store.connections[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		conn.Name = *update.Name
	}
	if update.Credentials != nil {
		conn.Credentials = copyMap(update.Credentials)
	}
	if update.Variables != nil {
		conn.Variables = copyMap(update.Variables)
	}
	return copyConnection(conn), nil
}

func (m *mockConnectionRepo) Delete(_ context.Context, id bson.ObjectID) (bool, error) {
	if err := m.reg.connectionDeleteErr; err != nil {
		return false, err
	}
	if _, ok := m.reg.store.connections[id]; !ok {
		return false, nil
	}
	delete(m.reg.store.connections, id)
	return true, nil
}

func (m *mockConnectionRepo) Get(_ context.Context, filters []repositories.Filter) ([]*models.ConnectionWithQueries, error) {
	var out []*models.ConnectionWithQueries
	for id, conn := range m.reg.store.connections {
		if !connectionMatches(conn, filters) {
			continue
		}
		out = append(out, &models.ConnectionWithQueries{
			Connection: *copyConnection(conn),
			Queries:    m.childQueries(id),
		})
	}
	return out, nil
}

func connectionMatches(c *models.Connection, filters []repositories.Filter) bool {
	for _, f := range filters {
		switch f.Field {
		case "user_id":
			if v, _ := eqString(f.Value); v != c.UserID {
				return false
			}
		case "type":
			if v, _ := eqString(f.Value); v != string(c.Type) {
				return false
			}
		case "name":
			if v, _ := eqString(f.Value); v != c.Name {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type mockQueryRepo struct {
	reg *mockRegistry
}

func (m *mockQueryRepo) parent(q *models.Query) *models.Connection {
	conn, ok := m.reg.store.connections[q.ConnectionID]
	if !ok {
		return nil
	}
	return copyConnection(conn)
}

func (m *mockQueryRepo) Create(_ context.Context, query *models.Query) (*models.Query, error) {
	query.ID = bson.NewObjectID()
	m.reg.store.queries[query.ID] = copyQuery(query)
	return query, nil
}

func (m *mockQueryRepo) GetByID(_ context.Context, id bson.ObjectID) (*models.QueryWithConnection, error) {
	query, ok := m.reg.store.queries[id]
	if !ok {
		return nil, nil
	}
	return &models.QueryWithConnection{
		Query:      *copyQuery(query),
		Connection: m.parent(query),
	}, nil
}

func (m *mockQueryRepo) Update(_ context.Context, id bson.ObjectID, update models.QueryUpdate) (*models.Query, error) {
	query, ok := m.reg.store.queries[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		query.Name = *update.Name
	}
	if update.Metadata != nil {
		query.Metadata = copyMap(update.Metadata)
	}
	return copyQuery(query), nil
}

func (m *mockQueryRepo) Delete(_ context.Context, id bson.ObjectID) (bool, error) {
	if err := m.reg.queryDeleteErr; err != nil {
		return false, err
	}
	if _, ok := m.reg.store.queries[id]; !ok {
		return false, nil
	}
	delete(m.reg.store.queries, id)
	return true, nil
}

func (m *mockQueryRepo) Get(_ context.Context, filters []repositories.Filter) ([]*models.QueryWithConnection, error) {
	var out []*models.QueryWithConnection
	for _, query := range m.reg.store.queries {
		if !queryMatches(query, filters) {
			continue
		}
		out = append(out, &models.QueryWithConnection{
			Query:      *copyQuery(query),
			Connection: m.parent(query),
		})
	}
	return out, nil
}

func queryMatches(q *models.Query, filters []repositories.Filter) bool {
	for _, f := range filters {
		switch f.Field {
		case "connection_id":
			id, ok := f.Value.(bson.ObjectID)
			if !ok || id != q.ConnectionID {
				return false
			}
		case "user_id":
			if v, _ := eqString(f.Value); v != q.UserID {
				return false
			}
		case "name":
			if v, _ := eqString(f.Value); v != q.Name {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type mockDashboardRepo struct {
	reg *mockRegistry
}

func (m *mockDashboardRepo) Create(_ context.Context, dashboard *models.Dashboard) (*models.Dashboard, error) {
	dashboard.ID = bson.NewObjectID()
	m.reg.store.dashboards[dashboard.ID] = copyDashboard(dashboard)
	return dashboard, nil
}

func (m *mockDashboardRepo) GetByID(_ context.Context, id bson.ObjectID) (*models.Dashboard, error) {
	dashboard, ok := m.reg.store.dashboards[id]
	if !ok {
		return nil, nil
	}
	return copyDashboard(dashboard), nil
}

func (m *mockDashboardRepo) Update(_ context.Context, id bson.ObjectID, update models.DashboardUpdate) (*models.Dashboard, error) {
	if err := m.reg.dashboardUpdateErr; err != nil {
		return nil, err
	}
	dashboard, ok := m.reg.store.dashboards[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		dashboard.Name = *update.Name
	}
	if update.ClearFolder {
		dashboard.FolderID = nil
	} else if update.FolderID != nil {
		fid := *update.FolderID
		dashboard.FolderID = &fid
	}
	if update.Metadata != nil {
		dashboard.Metadata = copyMap(update.Metadata)
	}
	return copyDashboard(dashboard), nil
}

func (m *mockDashboardRepo) Delete(_ context.Context, id bson.ObjectID) (bool, error) {
	if err := m.reg.dashboardDeleteErr; err != nil {
		return false, err
	}
	if _, ok := m.reg.store.dashboards[id]; !ok {
		return false, nil
	}
	delete(m.reg.store.dashboards, id)
	return true, nil
}

func (m *mockDashboardRepo) Get(_ context.Context, filters []repositories.Filter) ([]*models.Dashboard, error) {
	var out []*models.Dashboard
	for _, dashboard := range m.reg.store.dashboards {
		if !dashboardMatches(dashboard, filters) {
			continue
		}
		out = append(out, copyDashboard(dashboard))
	}
	return out, nil
}

func dashboardMatches(d *models.Dashboard, filters []repositories.Filter) bool {
	for _, f := range filters {
		switch f.Field {
		case "user_id":
			if v, _ := eqString(f.Value); v != d.UserID {
				return false
			}
		case "name":
			if v, _ := eqString(f.Value); v != d.Name {
				return false
			}
		case "folder_id":
			id, ok := f.Value.(bson.ObjectID)
			if !ok || d.FolderID == nil || *d.FolderID != id {
				return false
			}
		case "metadata." + models.MetadataQueriesField:
			doc, ok := f.Value.(bson.M)
			if !ok || f.Op != repositories.OpElemMatch {
				return false
			}
			want, _ := doc["id"].(string)
			found := false
			for _, ref := range d.QueryRefs() {
				if id, ok := ref["id"].(string); ok && id == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (m *mockDashboardRepo) Publish(_ context.Context, dashboardID bson.ObjectID, snapshot *models.Dashboard) (*models.PublishedDashboard, error) {
	published := &models.PublishedDashboard{
		DashboardID: dashboardID,
		Dashboard:   *copyDashboard(snapshot),
	}
	if prev, ok := m.reg.store.published[dashboardID]; ok {
		published.ID = prev.ID
	} else {
		published.ID = bson.NewObjectID()
	}
	m.reg.store.published[dashboardID] = published
	return published, nil
}

func (m *mockDashboardRepo) GetPublished(_ context.Context, dashboardID bson.ObjectID) (*models.PublishedDashboard, error) {
	published, ok := m.reg.store.published[dashboardID]
	if !ok {
		return nil, nil
	}
	cp := *published
	cp.Dashboard = *copyDashboard(&published.Dashboard)
	return &cp, nil
}

func (m *mockDashboardRepo) Unpublish(_ context.Context, dashboardID bson.ObjectID) (bool, error) {
	if err := m.reg.unpublishErr; err != nil {
		return false, err
	}
	if _, ok := m.reg.store.published[dashboardID]; !ok {
		return false, nil
	}
	delete(m.reg.store.published, dashboardID)
	return true, nil
}

type mockFolderRepo struct {
	reg *mockRegistry
}

func (m *mockFolderRepo) Create(_ context.Context, folder *models.Folder) (*models.Folder, error) {
	folder.ID = bson.NewObjectID()
	cp := *folder
	m.reg.store.folders[folder.ID] = &cp
	return folder, nil
}

func (m *mockFolderRepo) GetByID(_ context.Context, id bson.ObjectID) (*models.Folder, error) {
	folder, ok := m.reg.store.folders[id]
	if !ok {
		return nil, nil
	}
	cp := *folder
	return &cp, nil
}

func (m *mockFolderRepo) Update(_ context.Context, id bson.ObjectID, update models.FolderUpdate) (*models.Folder, error) {
	folder, ok := m.reg.store.folders[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		folder.Name = *update.Name
	}
	cp := *folder
	return &cp, nil
}

func (m *mockFolderRepo) Delete(_ context.Context, id bson.ObjectID) (bool, error) {
	if err := m.reg.folderDeleteErr; err != nil {
		return false, err
	}
	if _, ok := m.reg.store.folders[id]; !ok {
		return false, nil
	}
	delete(m.reg.store.folders, id)
	return true, nil
}

func (m *mockFolderRepo) Get(_ context.Context, filters []repositories.Filter) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, folder := range m.reg.store.folders {
		if !folderMatches(folder, filters) {
			continue
		}
		cp := *folder
		out = append(out, &cp)
	}
	return out, nil
}

func folderMatches(f *models.Folder, filters []repositories.Filter) bool {
	for _, filter := range filters {
		switch filter.Field {
		case "user_id":
			if v, _ := eqString(filter.Value); v != f.UserID {
				return false
			}
		case "name":
			if v, _ := eqString(filter.Value); v != f.Name {
				return false
			}
		default:
			return false
		}
	}
	return true
}
