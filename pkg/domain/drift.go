package domain

import (
	"fmt"
	"time"
)

// DriftEvent records one drift check comparing the training distribution with
// the distribution currently observed. Events are append-only.
type DriftEvent struct {
	ID                    ID             `bson:"_id,omitempty" json:"id"`
	DetectionTime         time.Time      `bson:"detection_time" json:"detection_time"`
	DriftScore            float64        `bson:"drift_score" json:"drift_score"`
	ReferenceDistribution map[string]any `bson:"reference_distribution" json:"reference_distribution"`
	CurrentDistribution   map[string]any `bson:"current_distribution" json:"current_distribution"`
}

// NewDriftEvent returns an event detected at now. Both distributions are
// copied in the shape they have after a round trip through the store.
func NewDriftEvent(score float64, reference, current map[string]any, now time.Time) (*DriftEvent, error) {
	reference, err := normalizeDocument("drift", "reference_distribution", reference)
	if err != nil {
		return nil, err
	}
	current, err = normalizeDocument("drift", "current_distribution", current)
	if err != nil {
		return nil, err
	}
	d := &DriftEvent{
		DetectionTime:         NormalizeTime(now),
		DriftScore:            score,
		ReferenceDistribution: reference,
		CurrentDistribution:   current,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (DriftEvent) Collection() string { return CollectionDrift }

func (d *DriftEvent) DocumentID() ID      { return d.ID }
func (d *DriftEvent) SetDocumentID(id ID) { d.ID = id }

// Validate implements Entity.
func (d *DriftEvent) Validate() error {
	if err := requireTime("drift", "detection_time", d.DetectionTime); err != nil {
		return err
	}
	if !finite(d.DriftScore) {
		return invalid("drift", "drift_score", "must be a finite number")
	}
	if d.ReferenceDistribution == nil {
		return invalid("drift", "reference_distribution", "must be set")
	}
	if d.CurrentDistribution == nil {
		return invalid("drift", "current_distribution", "must be set")
	}
	return nil
}

func (d DriftEvent) String() string {
	return fmt.Sprintf("Drift event at %s (score: %g)", d.DetectionTime.Format(time.RFC3339), d.DriftScore)
}
