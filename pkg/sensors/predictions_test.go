package sensors

import (
	"context"
	"errors"
	"testing"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

func TestRecordPrediction_UniquePerModelVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.machine(t, "gen-1")
	reading := f.reading(t, m.ID, epoch)

	first, err := f.svc.RecordPrediction(ctx, PredictionInput{ReadingID: reading, ClusterID: 2, ModelVersion: "3"})
	if err != nil {
		t.Fatalf("RecordPrediction: %v", err)
	}
	_, err = f.svc.RecordPrediction(ctx, PredictionInput{ReadingID: reading, ClusterID: 4, ModelVersion: "3"})
	if !store.IsDuplicateKey(err) {
		t.Fatalf("duplicate prediction: got %v, want duplicate key", err)
	}
	second, err := f.svc.RecordPrediction(ctx, PredictionInput{ReadingID: reading, ClusterID: 4, ModelVersion: "4"})
	if err != nil {
		t.Fatalf("RecordPrediction with another version: %v", err)
	}

	got, err := f.svc.ReadingPredictions(ctx, reading)
	if err != nil {
		t.Fatalf("ReadingPredictions: %v", err)
	}
	if len(got) != 2 || got[0].ID != first || got[1].ID != second {
		t.Errorf("ReadingPredictions = %v, want [%s %s]", got, first, second)
	}
}

func TestRecordPrediction_Fields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reading := domain.NewID()
	score := 0.93
	run := "a1b2c3"

	id, err := f.svc.RecordPrediction(ctx, PredictionInput{
		ReadingID:       reading,
		ClusterID:       1,
		ModelVersion:    "7",
		ConfidenceScore: &score,
		MLflowRunID:     &run,
	})
	if err != nil {
		t.Fatalf("RecordPrediction: %v", err)
	}
	got, _ := store.GetByID[domain.SensorPrediction](ctx, f.store, domain.CollectionPredictions, id)
	if got.ModelName != domain.DefaultModelName {
		t.Errorf("model_name = %q, want %q", got.ModelName, domain.DefaultModelName)
	}
	if got.ConfidenceScore == nil || *got.ConfidenceScore != score {
		t.Errorf("confidence_score = %v, want %v", got.ConfidenceScore, score)
	}
	if got.MLflowRunID == nil || *got.MLflowRunID != run {
		t.Errorf("mlflow_run_id = %v, want %q", got.MLflowRunID, run)
	}
	if !got.PredictionTime.Equal(epoch) {
		t.Errorf("prediction_time = %v, want %v", got.PredictionTime, epoch)
	}

	custom, _ := f.svc.RecordPrediction(ctx, PredictionInput{ReadingID: reading, ClusterID: 1, ModelVersion: "8", ModelName: "kmeans"})
	got, _ = store.GetByID[domain.SensorPrediction](ctx, f.store, domain.CollectionPredictions, custom)
	if got.ModelName != "kmeans" {
		t.Errorf("model_name = %q, want %q", got.ModelName, "kmeans")
	}
}

func TestRecordPrediction_RequiresVersion(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordPrediction(context.Background(), PredictionInput{ReadingID: domain.NewID()})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
