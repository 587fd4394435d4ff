package domain

import (
	"fmt"
	"time"
)

// ModelVersion announces a model version available in the registry. The
// prediction service flips IsProcessed once it has loaded the version.
type ModelVersion struct {
	ID          ID        `bson:"_id,omitempty" json:"id"`
	Version     string    `bson:"version" json:"version"`
	RunID       string    `bson:"run_id" json:"run_id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	IsProcessed bool      `bson:"is_processed" json:"is_processed"`
}

// NewModelVersion returns an unprocessed version registered at now.
func NewModelVersion(version, runID string, now time.Time) (*ModelVersion, error) {
	v := &ModelVersion{Version: version, RunID: runID, CreatedAt: NormalizeTime(now)}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (ModelVersion) Collection() string { return CollectionVersions }

func (v *ModelVersion) DocumentID() ID      { return v.ID }
func (v *ModelVersion) SetDocumentID(id ID) { v.ID = id }

// Validate implements Entity.
func (v *ModelVersion) Validate() error {
	if blank(v.Version) {
		return invalid("model version", "version", "must not be empty")
	}
	if blank(v.RunID) {
		return invalid("model version", "run_id", "must not be empty")
	}
	return requireTime("model version", "created_at", v.CreatedAt)
}

func (v ModelVersion) String() string {
	return fmt.Sprintf("Model version %s (Run: %s)", v.Version, v.RunID)
}
