package domain

import (
	"fmt"
	"time"
)

// DefaultModelName names the clustering model when a prediction does not say.
const DefaultModelName = "sensor_failure_clustering"

// SensorPrediction is the cluster a model assigned to a reading. A reading has
// at most one prediction per model version.
type SensorPrediction struct {
	ID              ID        `bson:"_id,omitempty" json:"id"`
	ClusterID       int       `bson:"cluster_id" json:"cluster_id"`
	ModelVersion    string    `bson:"model_version" json:"model_version"`
	ConfidenceScore *float64  `bson:"confidence_score,omitempty" json:"confidence_score,omitempty"`
	PredictionTime  time.Time `bson:"prediction_time" json:"prediction_time"`
	MLflowRunID     *string   `bson:"mlflow_run_id,omitempty" json:"mlflow_run_id,omitempty"`
	ModelName       string    `bson:"model_name" json:"model_name"`
	ReadingID       ID        `bson:"reading_id" json:"reading_id"`
}

// NewSensorPrediction returns a prediction for readingID made at now by the
// default model. Optional fields are set by the caller.
func NewSensorPrediction(readingID ID, clusterID int, modelVersion string, now time.Time) (*SensorPrediction, error) {
	p := &SensorPrediction{
		ClusterID:      clusterID,
		ModelVersion:   modelVersion,
		PredictionTime: NormalizeTime(now),
		ModelName:      DefaultModelName,
		ReadingID:      readingID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (SensorPrediction) Collection() string { return CollectionPredictions }

func (p *SensorPrediction) DocumentID() ID      { return p.ID }
func (p *SensorPrediction) SetDocumentID(id ID) { p.ID = id }

// Validate implements Entity.
func (p *SensorPrediction) Validate() error {
	if blank(p.ModelVersion) {
		return invalid("prediction", "model_version", "must not be empty")
	}
	if blank(p.ModelName) {
		return invalid("prediction", "model_name", "must not be empty")
	}
	if err := requireTime("prediction", "prediction_time", p.PredictionTime); err != nil {
		return err
	}
	if err := requireRef("prediction", "reading_id", p.ReadingID); err != nil {
		return err
	}
	if p.ConfidenceScore != nil && !finite(*p.ConfidenceScore) {
		return invalid("prediction", "confidence_score", "must be a finite number")
	}
	if p.MLflowRunID != nil && blank(*p.MLflowRunID) {
		return invalid("prediction", "mlflow_run_id", "must be omitted or non-empty")
	}
	return nil
}

func (p SensorPrediction) String() string {
	return fmt.Sprintf("Prediction for reading %s: cluster %d", p.ReadingID, p.ClusterID)
}
