package sensors

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

// ReadingInput is a reading for a machine already known by its store id.
// A zero Timestamp means now.
type ReadingInput struct {
	MachineID domain.ID
	Values    map[string]float64
	Timestamp time.Time
	FailureID *domain.ID
}

// RecordReading stores the reading and then refreshes the machine's
// last_seen. When the refresh fails the reading stays stored: its id is
// returned together with an error matching ErrCascade. A machine that does
// not exist is not an error.
func (s *Service) RecordReading(ctx context.Context, in ReadingInput) (id domain.ID, err error) {
	r, err := domain.NewSensorReading(in.MachineID, in.Values, s.orNow(in.Timestamp), in.FailureID)
	if err != nil {
		return domain.NilID, err
	}
	ctx, span := s.start(ctx, "RecordReading")
	defer func() { finish(span, err) }()

	id, err = store.Create(ctx, s.store, r)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventReadingRecorded, id, in.MachineID, readingAttrs(r))

	if _, err := s.TouchMachine(ctx, in.MachineID); err != nil {
		s.cascades.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "touch_machine")))
		return id, fmt.Errorf("%w: touch machine %s: %w", ErrCascade, in.MachineID, err)
	}
	return id, nil
}

// IngestResult reports what IngestReading stored.
type IngestResult struct {
	ReadingID      domain.ID
	MachineID      domain.ID
	MachineCreated bool
}

// IngestReading records a reading for the machine reporting as externalID.
// An unseen machine is created first, with first_seen and last_seen at the
// ingestion time. A known machine is left alone until the reading is stored
// and only then has its last_seen refreshed, so a failed insert never moves
// it. When that refresh fails the reading stays stored and the result comes
// back with an error matching ErrCascade.
func (s *Service) IngestReading(ctx context.Context, externalID string, values map[string]float64, ts time.Time, failureID *domain.ID) (res IngestResult, err error) {
	// Check the reading itself before anything is written. The machine
	// reference is a stand-in until the machine is resolved.
	r, err := domain.NewSensorReading(domain.NewID(), values, s.orNow(ts), failureID)
	if err != nil {
		return IngestResult{}, err
	}
	ctx, span := s.start(ctx, "IngestReading")
	defer func() { finish(span, err) }()

	machineID, created, err := s.ensureMachine(ctx, externalID)
	if err != nil {
		return IngestResult{}, err
	}
	res = IngestResult{MachineID: machineID, MachineCreated: created}

	r.MachineID = machineID
	res.ReadingID, err = store.Create(ctx, s.store, r)
	if err != nil {
		return res, err
	}
	s.emit(ctx, EventReadingRecorded, res.ReadingID, machineID, readingAttrs(r))

	if created {
		return res, nil
	}
	if _, err := s.TouchMachine(ctx, machineID); err != nil {
		s.cascades.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "touch_machine")))
		return res, fmt.Errorf("%w: touch machine %s: %w", ErrCascade, machineID, err)
	}
	return res, nil
}

func readingAttrs(r *domain.SensorReading) map[string]string {
	attrs := map[string]string{"sensors": fmt.Sprint(len(r.Values))}
	if r.FailureID != nil {
		attrs["failure_id"] = r.FailureID.Hex()
	}
	return attrs
}

// Reading returns the reading with id, or nil.
func (s *Service) Reading(ctx context.Context, id domain.ID) (*domain.SensorReading, error) {
	return store.GetByID[domain.SensorReading](ctx, s.store, domain.CollectionReadings, id)
}

// MachineReadings returns the machine's readings, newest first.
func (s *Service) MachineReadings(ctx context.Context, machineID domain.ID, opts ...store.QueryOption) ([]domain.SensorReading, error) {
	return s.readings(ctx, bson.M{"machine_id": machineID}, opts)
}

// FailureReadings returns the readings taken during a failure, newest first.
func (s *Service) FailureReadings(ctx context.Context, failureID domain.ID, opts ...store.QueryOption) ([]domain.SensorReading, error) {
	return s.readings(ctx, bson.M{"failure_id": failureID}, opts)
}

// ReadingsInTimeRange returns the machine's readings with from <= timestamp
// <= to, newest first. An inverted range matches nothing.
func (s *Service) ReadingsInTimeRange(ctx context.Context, machineID domain.ID, from, to time.Time, opts ...store.QueryOption) ([]domain.SensorReading, error) {
	filter := bson.M{
		"machine_id": machineID,
		"timestamp": bson.M{
			"$gte": domain.CeilTime(from),
			"$lte": domain.NormalizeTime(to),
		},
	}
	return s.readings(ctx, filter, opts)
}

func (s *Service) readings(ctx context.Context, filter bson.M, opts []store.QueryOption) ([]domain.SensorReading, error) {
	opts = append([]store.QueryOption{store.SortBy("timestamp", store.Descending)}, opts...)
	return store.Query[domain.SensorReading](ctx, s.store, domain.CollectionReadings, filter, opts...)
}
