package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Folder groups dashboards. Membership is a weak reference: dashboards point
// at folders via folder_id, and deleting a folder detaches them rather than
// deleting them.
type Folder struct {
	ID     bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string        `bson:"name" json:"name"`
	UserID string        `bson:"user_id" json:"user_id"`
}

// FolderWithDashboards is a folder plus its current child dashboards.
type FolderWithDashboards struct {
	Folder     `bson:",inline"`
	Dashboards []Dashboard `bson:"dashboards" json:"dashboards"`
}
