package services

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/crypto"
	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/repositories"
)

// QueryCreate carries the fields for creating a query.
type QueryCreate struct {
	Name         string
	UserID       string
	ConnectionID bson.ObjectID
	Metadata     map[string]any
}

// QueryListParams are the optional equality filters for listing queries.
type QueryListParams struct {
	ConnectionID *bson.ObjectID
	UserID       string
	Name         string
}

// QueryService implements business rules for queries: connection foreign-key
// validation, ownership checks, credential masking on enriched responses,
// and the dashboard-reference prune on delete.
type QueryService interface {
	Create(ctx context.Context, create QueryCreate) (*models.Query, error)
	GetByID(ctx context.Context, id bson.ObjectID, req Requester) (*models.QueryWithConnection, error)
	Update(ctx context.Context, id bson.ObjectID, userID string, update models.QueryUpdate) (*models.QueryWithConnection, error)
	Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error)
	List(ctx context.Context, params QueryListParams) ([]*models.QueryWithConnection, error)
}

type queryService struct {
	registry repositories.Registry
	cipher   *crypto.SecretCipher
	authz    *Authorizer
	logger   *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(registry repositories.Registry, cipher *crypto.SecretCipher, authz *Authorizer, logger *zap.Logger) QueryService {
	return &queryService{
		registry: registry,
		cipher:   cipher,
		authz:    authz,
		logger:   logger,
	}
}

func (s *queryService) Create(ctx context.Context, create QueryCreate) (*models.Query, error) {
	connection, err := s.registry.Connections().GetByID(ctx, create.ConnectionID)
	if err != nil {
		return nil, err
	}
	if connection == nil {
		return nil, apperrors.NotFound(apperrors.CodeConnectionNotFound, "Could not find connection with the given id")
	}
	if connection.UserID != create.UserID {
		return nil, apperrors.NotAuthorized("You are not authorized to create a query in this connection")
	}

	metadata := create.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query := &models.Query{
		Name:         create.Name,
		UserID:       create.UserID,
		ConnectionID: create.ConnectionID,
		Metadata:     metadata,
	}
	created, err := s.registry.Queries().Create(ctx, query)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created query",
		zap.String("id", created.ID.Hex()),
		zap.String("connection_id", created.ConnectionID.Hex()),
		zap.String("user_id", created.UserID),
	)
	return created, nil
}

func (s *queryService) GetByID(ctx context.Context, id bson.ObjectID, req Requester) (*models.QueryWithConnection, error) {
	query, err := s.registry.Queries().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, apperrors.NotFound(apperrors.CodeQueryNotFound, "Could not find query with the given id")
	}
	if !s.authz.CanRead(query.UserID, req) {
		return nil, apperrors.NotAuthorized("You are not authorized to access this query")
	}
	if err := maskConnectionCredentials(s.cipher, query.Connection); err != nil {
		return nil, apperrors.Internal("error masking credentials: %v", err)
	}
	return query, nil
}

func (s *queryService) Update(ctx context.Context, id bson.ObjectID, userID string, update models.QueryUpdate) (*models.QueryWithConnection, error) {
	existing, err := s.registry.Queries().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound(apperrors.CodeQueryNotFound, "Could not find query with the given id")
	}
	if !s.authz.IsOwner(existing.UserID, Requester{UserID: userID}) {
		return nil, apperrors.NotAuthorized("You are not authorized to update this query")
	}

	updated, err := s.registry.Queries().Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound(apperrors.CodeQueryNotFound, "Could not find query with the given id")
	}

	result := &models.QueryWithConnection{
		Query:      *updated,
		Connection: existing.Connection,
	}
	if err := maskConnectionCredentials(s.cipher, result.Connection); err != nil {
		return nil, apperrors.Internal("error masking credentials: %v", err)
	}
	return result, nil
}

// Delete removes the query and, in the same transaction, prunes its
// reference from the metadata of every dashboard embedding it.
func (s *queryService) Delete(ctx context.Context, id bson.ObjectID, userID string) (bool, error) {
	query, err := s.registry.Queries().GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if query == nil {
		return false, apperrors.NotFound(apperrors.CodeQueryNotFound, "Could not find query with the given id")
	}
	if !s.authz.IsOwner(query.UserID, Requester{UserID: userID}) {
		return false, apperrors.NotAuthorized("You are not authorized to delete this query")
	}

	err = s.registry.WithTransaction(ctx, func(txCtx context.Context, reg repositories.Registry) error {
		if err := pruneQueryFromDashboards(txCtx, reg, id); err != nil {
			return err
		}
		deleted, err := reg.Queries().Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.Internal("query %s vanished during delete", id.Hex())
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Deleted query", zap.String("id", id.Hex()))
	return true, nil
}

func (s *queryService) List(ctx context.Context, params QueryListParams) ([]*models.QueryWithConnection, error) {
	var filters []repositories.Filter
	if params.ConnectionID != nil {
		filters = append(filters, repositories.Eq("connection_id", *params.ConnectionID))
	}
	if params.UserID != "" {
		filters = append(filters, repositories.Eq("user_id", params.UserID))
	}
	if params.Name != "" {
		filters = append(filters, repositories.Eq("name", params.Name))
	}

	queries, err := s.registry.Queries().Get(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, query := range queries {
		if err := maskConnectionCredentials(s.cipher, query.Connection); err != nil {
			return nil, apperrors.Internal("error masking credentials: %v", err)
		}
	}
	return queries, nil
}
