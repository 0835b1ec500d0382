package repositories

import (
	"context"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/database"
)

// Registry bundles every repository behind one handle and provides the sole
// consistency mechanism for cross-entity cascades: WithTransaction runs a
// callback whose reads and writes all join one database transaction.
type Registry interface {
	Connections() ConnectionRepository
	Queries() QueryRepository
	Dashboards() DashboardRepository
	Folders() FolderRepository

	// WithTransaction opens a session, starts a transaction, and invokes fn
	// with a context every repository operation must use to join it. The
	// transaction commits when fn returns nil and aborts, rolling back every
	// write, when fn returns an error.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, r Registry) error) error
}

type mongoRegistry struct {
	db          *database.Mongo
	connections ConnectionRepository
	queries     QueryRepository
	dashboards  DashboardRepository
	folders     FolderRepository
}

// NewRegistry wires all repositories over one MongoDB handle.
func NewRegistry(db *database.Mongo) Registry {
	return &mongoRegistry{
		db:          db,
		connections: NewConnectionRepository(db),
		queries:     NewQueryRepository(db),
		dashboards:  NewDashboardRepository(db),
		folders:     NewFolderRepository(db),
	}
}

func (r *mongoRegistry) Connections() ConnectionRepository { return r.connections }
func (r *mongoRegistry) Queries() QueryRepository          { return r.queries }
func (r *mongoRegistry) Dashboards() DashboardRepository   { return r.dashboards }
func (r *mongoRegistry) Folders() FolderRepository         { return r.folders }

func (r *mongoRegistry) WithTransaction(ctx context.Context, fn func(ctx context.Context, reg Registry) error) error {
	session, err := r.db.Client.StartSession()
	if err != nil {
		return apperrors.Internal("error starting session: %v", err)
	}
	defer session.EndSession(ctx)

	// The driver binds the session to the callback context, so repositories
	// need no explicit session handle.
	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx, r)
	})
	if err != nil {
		if appErr, ok := apperrors.As(err); ok {
			return appErr
		}
		return apperrors.Internal("transaction failed: %v", err)
	}
	return nil
}
