package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Query is saved query metadata belonging to a connection. It models what a
// dashboard panel would run, not an execution engine.
type Query struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string         `bson:"name" json:"name"`
	UserID       string         `bson:"user_id" json:"user_id"`
	ConnectionID bson.ObjectID  `bson:"connection_id" json:"connection_id"`
	Metadata     map[string]any `bson:"metadata" json:"metadata"`
}

// QueryWithConnection is a query enriched with its parent connection via an
// aggregation lookup, so callers can see the connection type and masked
// credential preview without a second fetch.
type QueryWithConnection struct {
	Query      `bson:",inline"`
	Connection *Connection `bson:"connection" json:"connection,omitempty"`
}
