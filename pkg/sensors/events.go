package sensors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"sensor-failure-detection/shared/pkg/domain"
)

// EventType names a domain event.
type EventType string

const (
	EventMachineRegistered  EventType = "machine.registered"
	EventReadingRecorded    EventType = "reading.recorded"
	EventFailureOpened      EventType = "failure.opened"
	EventFailureResolved    EventType = "failure.resolved"
	EventPredictionRecorded EventType = "prediction.recorded"
	EventClusterRegistered  EventType = "cluster.registered"
	EventDriftRecorded      EventType = "drift.recorded"
	EventVersionRegistered  EventType = "version.registered"
	EventVersionProcessed   EventType = "version.processed"
)

// Event describes a write that has been committed to the store.
type Event struct {
	Type       EventType
	EntityID   domain.ID
	MachineID  domain.ID // zero for events not tied to a machine
	OccurredAt time.Time
	Attributes map[string]string
}

// EventEmitter receives domain events. Emission is best-effort: an error
// never changes the result of the operation that produced the event.
type EventEmitter interface {
	Emit(ctx context.Context, event Event) error
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }

func (s *Service) emit(ctx context.Context, typ EventType, entity, machine domain.ID, attrs map[string]string) {
	ev := Event{
		Type:       typ,
		EntityID:   entity,
		MachineID:  machine,
		OccurredAt: s.clock(),
		Attributes: attrs,
	}
	if err := s.emitter.Emit(ctx, ev); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
