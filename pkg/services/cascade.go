package services

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/repositories"
)

// metadataQueriesPath is the dashboard field matched when looking for
// embedded query references.
const metadataQueriesPath = "metadata." + models.MetadataQueriesField

// pruneQueryFromDashboards removes the given query's reference from the
// metadata of every dashboard embedding it. Must run inside a transaction;
// a partial prune would leave dangling references.
func pruneQueryFromDashboards(ctx context.Context, reg repositories.Registry, queryID bson.ObjectID) error {
	dashboards, err := reg.Dashboards().Get(ctx, []repositories.Filter{
		{Field: metadataQueriesPath, Op: repositories.OpElemMatch, Value: bson.M{"id": queryID.Hex()}},
	})
	if err != nil {
		return err
	}

	for _, dashboard := range dashboards {
		refs := dashboard.QueryRefs()
		kept := make([]map[string]any, 0, len(refs))
		for _, ref := range refs {
			if id, ok := ref["id"].(string); ok && id == queryID.Hex() {
				continue
			}
			kept = append(kept, ref)
		}

		// Replace only the queries list; other metadata keys survive.
		metadata := make(map[string]any, len(dashboard.Metadata))
		for k, v := range dashboard.Metadata {
			metadata[k] = v
		}
		metadata[models.MetadataQueriesField] = kept

		if _, err := reg.Dashboards().Update(ctx, dashboard.ID, models.DashboardUpdate{
			Metadata: metadata,
		}); err != nil {
			return err
		}
	}
	return nil
}
