// Package telemetry sends domain events from pkg/sensors to OpenTelemetry as
// log records.
package telemetry

import (
	"context"
	"sort"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"sensor-failure-detection/shared/pkg/sensors"
)

// ScopeName is the instrumentation scope of emitted records.
const ScopeName = "sensor-failure-detection/shared/events"

// recordEmitter is the part of otellog.Logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an emitter that writes events as log records via
// provider. A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) sensors.EventEmitter {
	if provider == nil {
		return sensors.NopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(ScopeName))
}

// NewEventEmitterWithLogger returns an emitter writing to logger.
func NewEventEmitterWithLogger(logger recordEmitter) sensors.EventEmitter {
	return &otelEmitter{logger: logger}
}

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to a log record. It never fails.
func (e *otelEmitter) Emit(ctx context.Context, event sensors.Event) error {
	rec := otellog.Record{}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetSeverityText("INFO")
	rec.SetBody(otellog.StringValue(string(event.Type)))

	rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	if !event.EntityID.IsZero() {
		rec.AddAttributes(otellog.String("entity_id", event.EntityID.Hex()))
	}
	if !event.MachineID.IsZero() {
		rec.AddAttributes(otellog.String("machine_id", event.MachineID.Hex()))
	}
	keys := make([]string, 0, len(event.Attributes))
	for k := range event.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.AddAttributes(otellog.String("attr."+k, event.Attributes[k]))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
