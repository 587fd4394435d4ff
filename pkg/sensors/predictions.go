package sensors

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

// PredictionInput is a cluster assignment for a stored reading. ModelName
// defaults to domain.DefaultModelName and a zero PredictionTime means now.
type PredictionInput struct {
	ReadingID       domain.ID
	ClusterID       int
	ModelVersion    string
	ConfidenceScore *float64
	MLflowRunID     *string
	ModelName       string
	PredictionTime  time.Time
}

// RecordPrediction stores a prediction. A second prediction for the same
// reading and model version is rejected by the store with a duplicate key
// error, see store.IsDuplicateKey.
func (s *Service) RecordPrediction(ctx context.Context, in PredictionInput) (domain.ID, error) {
	p := &domain.SensorPrediction{
		ClusterID:       in.ClusterID,
		ModelVersion:    in.ModelVersion,
		ConfidenceScore: in.ConfidenceScore,
		PredictionTime:  s.orNow(in.PredictionTime),
		MLflowRunID:     in.MLflowRunID,
		ModelName:       in.ModelName,
		ReadingID:       in.ReadingID,
	}
	if p.ModelName == "" {
		p.ModelName = domain.DefaultModelName
	}
	id, err := store.Create(ctx, s.store, p)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventPredictionRecorded, id, domain.NilID, map[string]string{
		"reading_id":    in.ReadingID.Hex(),
		"cluster_id":    strconv.Itoa(in.ClusterID),
		"model_version": in.ModelVersion,
	})
	return id, nil
}

// ReadingPredictions returns every prediction made for the reading in the
// store's natural order.
func (s *Service) ReadingPredictions(ctx context.Context, readingID domain.ID) ([]domain.SensorPrediction, error) {
	return store.Query[domain.SensorPrediction](ctx, s.store, domain.CollectionPredictions, bson.M{"reading_id": readingID})
}
