package domain

import (
	"fmt"
	"time"
)

// SensorReading is one measurement set taken from a machine. Readings are
// immutable once stored.
type SensorReading struct {
	ID        ID                 `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Values    map[string]float64 `bson:"values" json:"values"`
	MachineID ID                 `bson:"machine_id" json:"machine_id"`
	// FailureID references the failure active when the reading was taken, if any.
	FailureID *ID `bson:"failure_id,omitempty" json:"failure_id,omitempty"`
}

// NewSensorReading builds a reading for machineID. failureID may be nil.
func NewSensorReading(machineID ID, values map[string]float64, ts time.Time, failureID *ID) (*SensorReading, error) {
	r := &SensorReading{
		Timestamp: NormalizeTime(ts),
		Values:    values,
		MachineID: machineID,
		FailureID: failureID,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (SensorReading) Collection() string { return CollectionReadings }

func (r *SensorReading) DocumentID() ID      { return r.ID }
func (r *SensorReading) SetDocumentID(id ID) { r.ID = id }

// Validate implements Entity.
func (r *SensorReading) Validate() error {
	if err := requireTime("reading", "timestamp", r.Timestamp); err != nil {
		return err
	}
	if len(r.Values) == 0 {
		return invalid("reading", "values", "must contain at least one sensor")
	}
	for name, v := range r.Values {
		if blank(name) {
			return invalid("reading", "values", "sensor name must not be empty")
		}
		if !finite(v) {
			return invalid("reading", "values", fmt.Sprintf("sensor %q is not a finite number", name))
		}
	}
	if err := requireRef("reading", "machine_id", r.MachineID); err != nil {
		return err
	}
	if r.FailureID != nil && r.FailureID.IsZero() {
		return invalid("reading", "failure_id", "must be omitted or reference a document")
	}
	return nil
}

func (r SensorReading) String() string {
	return fmt.Sprintf("Reading for %s at %s", r.MachineID, r.Timestamp.Format(time.RFC3339))
}
