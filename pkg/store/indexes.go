package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"sensor-failure-detection/shared/pkg/domain"
)

func keys(pairs ...any) bson.D {
	d := make(bson.D, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, bson.E{Key: pairs[i].(string), Value: int32(pairs[i+1].(int))})
	}
	return d
}

// Indexes lists the secondary indexes each collection needs for the lookups
// in pkg/sensors.
var Indexes = map[string][]IndexSpec{
	domain.CollectionMachines: {
		{Keys: keys("machine_id", Ascending), Unique: true},
	},
	domain.CollectionReadings: {
		{Keys: keys("machine_id", Ascending, "timestamp", Descending)},
	},
	domain.CollectionFailures: {
		{Keys: keys("machine_id", Ascending, "start_time", Descending)},
		{Keys: keys("is_active", Ascending)},
	},
	domain.CollectionPredictions: {
		{Keys: keys("reading_id", Ascending, "model_version", Ascending), Unique: true},
	},
	domain.CollectionClusters: {
		{Keys: keys("mlflow_run_id", Ascending), Unique: true},
		{Keys: keys("is_active", Ascending)},
	},
	domain.CollectionDrift: {
		{Keys: keys("detection_time", Descending)},
	},
	domain.CollectionVersions: {
		{Keys: keys("created_at", Descending)},
	},
}

// Provision creates every index in Indexes, one collection per goroutine.
// Re-running it against an up-to-date database is a no-op.
func Provision(ctx context.Context, s Store) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, coll := range domain.Collections() {
		specs := Indexes[coll]
		if len(specs) == 0 {
			continue
		}
		g.Go(func() error {
			if err := s.EnsureIndexes(ctx, coll, specs); err != nil {
				return fmt.Errorf("ensure indexes on %s: %w", coll, err)
			}
			return nil
		})
	}
	return g.Wait()
}
