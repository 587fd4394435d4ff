package sensors

import (
	"context"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

// ClusterInput describes a trained clustering model.
type ClusterInput struct {
	MLflowRunID        string
	MLflowModelVersion int
	NClusters          int
	SilhouetteScore    float64
	ClusterProfiles    map[string]any
	Active             bool
}

// RegisterClusterModel stores a cluster model. When in.Active is set every
// active cluster is deactivated first and the new one is inserted active.
// The two steps are separate writes: a concurrent registration between them
// can leave two active clusters.
func (s *Service) RegisterClusterModel(ctx context.Context, in ClusterInput) (id domain.ID, err error) {
	c, err := domain.NewCluster(in.MLflowRunID, in.MLflowModelVersion, in.NClusters, in.SilhouetteScore, in.ClusterProfiles, s.clock())
	if err != nil {
		return domain.NilID, err
	}
	c.IsActive = in.Active
	ctx, span := s.start(ctx, "RegisterClusterModel")
	defer func() { finish(span, err) }()

	var deactivated int64
	if in.Active {
		deactivated, err = s.store.UpdateMany(ctx, domain.CollectionClusters, bson.M{"is_active": true}, bson.M{"is_active": false})
		if err != nil {
			return domain.NilID, err
		}
		span.SetAttributes(attribute.Int64("sensors.clusters.deactivated", deactivated))
	}
	id, err = store.Create(ctx, s.store, c)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventClusterRegistered, id, domain.NilID, map[string]string{
		"mlflow_run_id": in.MLflowRunID,
		"active":        strconv.FormatBool(in.Active),
		"deactivated":   strconv.FormatInt(deactivated, 10),
	})
	return id, nil
}

// ActiveCluster returns the most recently created active cluster, or nil.
func (s *Service) ActiveCluster(ctx context.Context) (*domain.Cluster, error) {
	found, err := store.Query[domain.Cluster](ctx, s.store, domain.CollectionClusters,
		bson.M{"is_active": true}, store.SortBy("created_at", store.Descending), store.Limit(1))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// RecordDriftEvent stores the result of a drift check.
func (s *Service) RecordDriftEvent(ctx context.Context, score float64, reference, current map[string]any) (domain.ID, error) {
	d, err := domain.NewDriftEvent(score, reference, current, s.clock())
	if err != nil {
		return domain.NilID, err
	}
	id, err := store.Create(ctx, s.store, d)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventDriftRecorded, id, domain.NilID, map[string]string{
		"drift_score": strconv.FormatFloat(score, 'g', -1, 64),
	})
	return id, nil
}

// RecentDriftEvents returns up to limit drift events, newest first. A limit
// of zero returns all of them.
func (s *Service) RecentDriftEvents(ctx context.Context, limit int64) ([]domain.DriftEvent, error) {
	return store.Query[domain.DriftEvent](ctx, s.store, domain.CollectionDrift, nil,
		store.SortBy("detection_time", store.Descending), store.Limit(limit))
}

// RegisterModelVersion stores a model version announced by the registry.
func (s *Service) RegisterModelVersion(ctx context.Context, version, runID string, processed bool) (domain.ID, error) {
	v, err := domain.NewModelVersion(version, runID, s.clock())
	if err != nil {
		return domain.NilID, err
	}
	v.IsProcessed = processed
	id, err := store.Create(ctx, s.store, v)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventVersionRegistered, id, domain.NilID, map[string]string{"version": version, "run_id": runID})
	return id, nil
}

// MarkModelVersionProcessed sets is_processed on the version. It matches on
// id alone, so repeating the call still reports true; false means the
// version does not exist.
func (s *Service) MarkModelVersionProcessed(ctx context.Context, versionID domain.ID) (bool, error) {
	ok, err := store.Update(ctx, s.store, domain.CollectionVersions, versionID, bson.M{"is_processed": true})
	if err != nil || !ok {
		return false, err
	}
	s.emit(ctx, EventVersionProcessed, versionID, domain.NilID, nil)
	return true, nil
}

// UnprocessedModelVersions returns versions not yet loaded, oldest first.
func (s *Service) UnprocessedModelVersions(ctx context.Context) ([]domain.ModelVersion, error) {
	return store.Query[domain.ModelVersion](ctx, s.store, domain.CollectionVersions,
		bson.M{"is_processed": false}, store.SortBy("created_at", store.Ascending))
}

// LatestModelVersion returns the most recently registered version, or nil.
func (s *Service) LatestModelVersion(ctx context.Context) (*domain.ModelVersion, error) {
	found, err := store.Query[domain.ModelVersion](ctx, s.store, domain.CollectionVersions, nil,
		store.SortBy("created_at", store.Descending), store.Limit(1))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}
