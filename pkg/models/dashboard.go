package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MetadataQueriesField is the dashboard metadata key holding embedded query
// references, each an object with an "id" of a query in hex form. Deleting a
// query prunes its reference from every dashboard carrying one.
const MetadataQueriesField = "queries"

// Dashboard is a user's dashboard. FolderID is nil when the dashboard is
// unfiled.
type Dashboard struct {
	ID       bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID   string         `bson:"user_id" json:"user_id"`
	Name     string         `bson:"name" json:"name"`
	FolderID *bson.ObjectID `bson:"folder_id" json:"folder_id"`
	Metadata map[string]any `bson:"metadata" json:"metadata"`
}

// QueryRefs extracts the embedded query references from dashboard metadata,
// normalizing the shapes the BSON decoder may hand back. Returns nil when the
// metadata carries none.
func (d *Dashboard) QueryRefs() []map[string]any {
	raw, ok := d.Metadata[MetadataQueriesField]
	if !ok {
		return nil
	}
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case bson.A:
		list = v
	default:
		return nil
	}
	refs := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if ref := asDocument(item); ref != nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// asDocument normalizes one embedded document to a plain map.
func asDocument(item any) map[string]any {
	switch v := item.(type) {
	case map[string]any:
		return v
	case bson.M:
		return map[string]any(v)
	case bson.D:
		doc := make(map[string]any, len(v))
		for _, e := range v {
			doc[e.Key] = e.Value
		}
		return doc
	}
	return nil
}

// PublishedDashboard is the shadow copy of a dashboard maintained by publish.
// At most one exists per dashboard (unique index on dashboard_id; publish
// upserts).
type PublishedDashboard struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	DashboardID bson.ObjectID `bson:"dashboard_id" json:"dashboard_id"`
	Dashboard   Dashboard     `bson:"dashboard" json:"dashboard"`
}
