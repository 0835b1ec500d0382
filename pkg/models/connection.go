package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ConnectionType enumerates the supported data-source kinds.
type ConnectionType string

const (
	ConnectionTypeRest     ConnectionType = "REST"
	ConnectionTypeMongo    ConnectionType = "MONGO"
	ConnectionTypePostgres ConnectionType = "POSTGRES"
)

// Valid reports whether t is one of the known connection types.
func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionTypeRest, ConnectionTypeMongo, ConnectionTypePostgres:
		return true
	}
	return false
}

// Credential field names with special handling. CredentialAPIKeyField is
// stored AES-GCM encrypted; clients only ever see CredentialAPIKeyPreview.
const (
	CredentialAPIKeyField   = "api_key"
	CredentialAPIKeyPreview = "api_key_preview"
)

// Connection is a saved data-source connection. Credentials may contain the
// api_key secret field, which the service layer encrypts before persistence.
type Connection struct {
	ID          bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string         `bson:"name" json:"name"`
	UserID      string         `bson:"user_id" json:"user_id"`
	Type        ConnectionType `bson:"type" json:"type"`
	Credentials map[string]any `bson:"credentials" json:"credentials"`
	Variables   map[string]any `bson:"variables" json:"variables"`
}

// ConnectionWithQueries is a connection enriched with its child queries via
// an aggregation lookup.
type ConnectionWithQueries struct {
	Connection `bson:",inline"`
	Queries    []Query `bson:"queries" json:"queries"`
}
