package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Partial-update shapes. Only explicitly set fields are applied; nil pointers
// and nil maps mean "leave untouched", never "clear".

// ConnectionUpdate is a partial update to a connection.
type ConnectionUpdate struct {
	Name        *string
	Credentials map[string]any
	Variables   map[string]any
}

// QueryUpdate is a partial update to a query.
type QueryUpdate struct {
	Name     *string
	Metadata map[string]any
}

// DashboardUpdate is a partial update to a dashboard. ClearFolder detaches
// the dashboard from its folder; it wins over FolderID when both are set.
type DashboardUpdate struct {
	Name        *string
	FolderID    *bson.ObjectID
	ClearFolder bool
	Metadata    map[string]any
}

// FolderUpdate is a partial update to a folder.
type FolderUpdate struct {
	Name *string
}
