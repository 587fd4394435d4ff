// Package sensors holds the relationship and domain operations shared by the
// ingestion, prediction, drift monitoring and model registry services.
//
// Operations that touch more than one document are not atomic. RecordReading
// persists the reading before refreshing the machine's last_seen, and
// RegisterClusterModel deactivates existing clusters before inserting the new
// one. A crash or a concurrent writer between the two steps is visible to
// readers. Nothing here enforces a single active failure per machine.
package sensors

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

const instrumentationName = "sensor-failure-detection/shared/pkg/sensors"

// ErrCascade marks the failure of a follow-up write after the primary write
// already succeeded. The primary write is not rolled back.
var ErrCascade = errors.New("cascade failed")

// Service runs domain operations against a Store. It keeps no state between
// calls and is safe for concurrent use.
type Service struct {
	store    store.Store
	now      func() time.Time
	emitter  EventEmitter
	tracer   trace.Tracer
	cascades metric.Int64Counter
}

type options struct {
	now     func() time.Time
	emitter EventEmitter
	tp      trace.TracerProvider
	mp      metric.MeterProvider
}

// Option configures a Service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEmitter sets where domain events go. The default drops them.
func WithEmitter(e EventEmitter) Option {
	return func(o *options) { o.emitter = e }
}

// WithTracerProvider sets the provider for operation spans. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the provider for the cascade failure counter. The
// default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// New returns a Service backed by s.
func New(s store.Store, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.emitter == nil {
		o.emitter = NopEmitter{}
	}
	if o.tp == nil {
		o.tp = otel.GetTracerProvider()
	}
	if o.mp == nil {
		o.mp = otel.GetMeterProvider()
	}
	cascades, err := o.mp.Meter(instrumentationName).Int64Counter(
		"sensors.cascade.failures",
		metric.WithDescription("Follow-up writes that failed after the primary write succeeded."),
	)
	if err != nil {
		cascades = metricnoop.Int64Counter{}
	}
	return &Service{
		store:    s,
		now:      o.now,
		emitter:  o.emitter,
		tracer:   o.tp.Tracer(instrumentationName),
		cascades: cascades,
	}
}

func (s *Service) clock() time.Time {
	return domain.NormalizeTime(s.now())
}

// orNow returns t normalized, or the current time when t is zero.
func (s *Service) orNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock()
	}
	return domain.NormalizeTime(t)
}

func (s *Service) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "sensors."+name)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
