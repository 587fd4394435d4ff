package domain

import (
	"fmt"
	"time"
)

// Failure is an episode during which a machine was failing. It is created
// active with no end time and resolved at most once.
type Failure struct {
	ID        ID         `bson:"_id,omitempty" json:"id"`
	StartTime time.Time  `bson:"start_time" json:"start_time"`
	EndTime   *time.Time `bson:"end_time,omitempty" json:"end_time,omitempty"`
	IsActive  bool       `bson:"is_active" json:"is_active"`
	MachineID ID         `bson:"machine_id" json:"machine_id"`
}

// NewFailure returns an active failure on machineID starting at start.
func NewFailure(machineID ID, start time.Time) (*Failure, error) {
	f := &Failure{
		StartTime: NormalizeTime(start),
		IsActive:  true,
		MachineID: machineID,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (Failure) Collection() string { return CollectionFailures }

func (f *Failure) DocumentID() ID      { return f.ID }
func (f *Failure) SetDocumentID(id ID) { f.ID = id }

// Validate implements Entity.
func (f *Failure) Validate() error {
	if err := requireTime("failure", "start_time", f.StartTime); err != nil {
		return err
	}
	if err := requireRef("failure", "machine_id", f.MachineID); err != nil {
		return err
	}
	if f.EndTime != nil {
		if f.IsActive {
			return invalid("failure", "end_time", "must be unset while the failure is active")
		}
		if f.EndTime.Before(f.StartTime) {
			return invalid("failure", "end_time", "must not precede start_time")
		}
	}
	return nil
}

// Resolved reports whether the failure has ended.
func (f *Failure) Resolved() bool {
	return !f.IsActive
}

// Duration is the failure length, measured up to now while it is active.
func (f *Failure) Duration(now time.Time) time.Duration {
	if f.EndTime != nil {
		return f.EndTime.Sub(f.StartTime)
	}
	return now.Sub(f.StartTime)
}

func (f Failure) String() string {
	return fmt.Sprintf("Failure on %s from %s", f.MachineID, f.StartTime.Format(time.RFC3339))
}
