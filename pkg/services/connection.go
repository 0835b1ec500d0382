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

// ConnectionCreate carries the fields for creating a connection.
type ConnectionCreate struct {
	Name        string
	UserID      string
	Type        models.ConnectionType
	Credentials map[string]any
	Variables   map[string]any
}

// ConnectionListParams are the optional equality filters for listing
// connections.
type ConnectionListParams struct {
	UserID string
	Type   models.ConnectionType
	Name   string
}

// ConnectionService implements business rules for connections: credential
// encryption and masking, ownership checks, and the delete cascade over child
// queries.
type ConnectionService interface {
	Create(ctx context.Context, create ConnectionCreate) (*models.ConnectionWithQueries, error)
	GetByID(ctx context.Context, id bson.ObjectID, req Requester) (*models.ConnectionWithQueries, error)
	Update(ctx context.Context, id bson.ObjectID, req Requester, update models.ConnectionUpdate) (*models.ConnectionWithQueries, error)
	Delete(ctx context.Context, id bson.ObjectID, req Requester) (bool, error)
	List(ctx context.Context, params ConnectionListParams) ([]*models.ConnectionWithQueries, error)
}

type connectionService struct {
	registry repositories.Registry
	cipher   *crypto.SecretCipher
	authz    *Authorizer
	logger   *zap.Logger
}

// NewConnectionService creates a connection service.
func NewConnectionService(registry repositories.Registry, cipher *crypto.SecretCipher, authz *Authorizer, logger *zap.Logger) ConnectionService {
	return &connectionService{
		registry: registry,
		cipher:   cipher,
		authz:    authz,
		logger:   logger,
	}
}

func (s *connectionService) Create(ctx context.Context, create ConnectionCreate) (*models.ConnectionWithQueries, error) {
	if !create.Type.Valid() {
		return nil, apperrors.BadRequest("unknown connection type " + string(create.Type))
	}

	credentials := create.Credentials
	if credentials == nil {
		credentials = map[string]any{}
	}
	if err := encryptSecretField(s.cipher, credentials); err != nil {
		return nil, apperrors.Internal("error encrypting credentials: %v", err)
	}

	variables := create.Variables
	if variables == nil {
		variables = map[string]any{}
	}

	conn := &models.Connection{
		Name:        create.Name,
		UserID:      create.UserID,
		Type:        create.Type,
		Credentials: credentials,
		Variables:   variables,
	}
	created, err := s.registry.Connections().Create(ctx, conn)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created connection",
		zap.String("id", created.ID.Hex()),
		zap.String("user_id", created.UserID),
		zap.String("type", string(created.Type)),
	)

	result := &models.ConnectionWithQueries{
		Connection: *created,
		Queries:    []models.Query{},
	}
	if err := maskConnectionCredentials(s.cipher, &result.Connection); err != nil {
		return nil, apperrors.Internal("error masking credentials: %v", err)
	}
	return result, nil
}

func (s *connectionService) GetByID(ctx context.Context, id bson.ObjectID, req Requester) (*models.ConnectionWithQueries, error) {
	conn, err := s.registry.Connections().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperrors.NotFound(apperrors.CodeConnectionNotFound, "Could not find connection with the given id")
	}
	if !s.authz.CanRead(conn.UserID, req) {
		return nil, apperrors.NotAuthorized("You are not authorized to access this connection")
	}
	if err := maskConnectionCredentials(s.cipher, &conn.Connection); err != nil {
		return nil, apperrors.Internal("error masking credentials: %v", err)
	}
	return conn, nil
}

func (s *connectionService) Update(ctx context.Context, id bson.ObjectID, req Requester, update models.ConnectionUpdate) (*models.ConnectionWithQueries, error) {
	existing, err := s.registry.Connections().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound(apperrors.CodeConnectionNotFound, "Could not find connection with the given id")
	}
	if !s.authz.IsOwner(existing.UserID, req) {
		return nil, apperrors.NotAuthorized("You are not authorized to update this connection")
	}

	if update.Credentials != nil {
		if err := encryptSecretField(s.cipher, update.Credentials); err != nil {
			return nil, apperrors.Internal("error encrypting credentials: %v", err)
		}
	}

	updated, err := s.registry.Connections().Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound(apperrors.CodeConnectionNotFound, "Could not find connection with the given id")
	}

	result := &models.ConnectionWithQueries{
		Connection: *updated,
		Queries:    existing.Queries,
	}
	if err := maskConnectionCredentials(s.cipher, &result.Connection); err != nil {
		return nil, apperrors.Internal("error masking credentials: %v", err)
	}
	return result, nil
}

// Delete removes the connection and, in the same transaction, every query
// referencing it, pruning each deleted query's reference from dashboard
// metadata. Any failure aborts the whole cascade.
func (s *connectionService) Delete(ctx context.Context, id bson.ObjectID, req Requester) (bool, error) {
	conn, err := s.registry.Connections().GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if conn == nil {
		return false, apperrors.NotFound(apperrors.CodeConnectionNotFound, "Could not find connection with the given id")
	}
	if !s.authz.IsOwner(conn.UserID, req) {
		return false, apperrors.NotAuthorized("You are not authorized to delete this connection")
	}

	err = s.registry.WithTransaction(ctx, func(txCtx context.Context, reg repositories.Registry) error {
		queries, err := reg.Queries().Get(txCtx, []repositories.Filter{
			repositories.Eq("connection_id", id),
		})
		if err != nil {
			return err
		}
		for _, query := range queries {
			if _, err := reg.Queries().Delete(txCtx, query.ID); err != nil {
				return err
			}
			if err := pruneQueryFromDashboards(txCtx, reg, query.ID); err != nil {
				return err
			}
		}
		deleted, err := reg.Connections().Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.Internal("connection %s vanished during delete", id.Hex())
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Deleted connection",
		zap.String("id", id.Hex()),
		zap.String("user_id", conn.UserID),
	)
	return true, nil
}

func (s *connectionService) List(ctx context.Context, params ConnectionListParams) ([]*models.ConnectionWithQueries, error) {
	var filters []repositories.Filter
	if params.UserID != "" {
		filters = append(filters, repositories.Eq("user_id", params.UserID))
	}
	if params.Type != "" {
		filters = append(filters, repositories.Eq("type", params.Type))
	}
	if params.Name != "" {
		filters = append(filters, repositories.Eq("name", params.Name))
	}

	connections, err := s.registry.Connections().Get(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, conn := range connections {
		if err := maskConnectionCredentials(s.cipher, &conn.Connection); err != nil {
			return nil, apperrors.Internal("error masking credentials: %v", err)
		}
	}
	return connections, nil
}
