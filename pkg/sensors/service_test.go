package sensors

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

func TestNew_Defaults(t *testing.T) {
	svc := New(store.NewMemoryStore())
	if svc.emitter == nil || svc.tracer == nil || svc.cascades == nil || svc.now == nil {
		t.Fatalf("New left defaults unset: %+v", svc)
	}
	if _, err := svc.RecordDriftEvent(context.Background(), 0.1, map[string]any{}, map[string]any{}); err != nil {
		t.Fatalf("RecordDriftEvent with default options: %v", err)
	}
}

func TestEvents_EmittedAfterWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.IngestReading(ctx, "mixer-1", map[string]float64{"torque": 3}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("IngestReading: %v", err)
	}
	failure, _ := f.svc.OpenFailure(ctx, res.MachineID, time.Time{})
	_, _ = f.svc.ResolveFailure(ctx, failure, time.Time{})
	_, _ = f.svc.RecordPrediction(ctx, PredictionInput{ReadingID: res.ReadingID, ClusterID: 1, ModelVersion: "1"})
	_, _ = f.svc.RegisterClusterModel(ctx, clusterInput("run-e", true))
	_, _ = f.svc.RecordDriftEvent(ctx, 0.2, map[string]any{}, map[string]any{})
	version, _ := f.svc.RegisterModelVersion(ctx, "1", "run-e", false)
	_, _ = f.svc.MarkModelVersionProcessed(ctx, version)

	want := []EventType{
		EventMachineRegistered,
		EventReadingRecorded,
		EventFailureOpened,
		EventFailureResolved,
		EventPredictionRecorded,
		EventClusterRegistered,
		EventDriftRecorded,
		EventVersionRegistered,
		EventVersionProcessed,
	}
	if got := f.emitter.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	reading := f.emitter.events[1]
	if reading.EntityID != res.ReadingID || reading.MachineID != res.MachineID {
		t.Errorf("reading event = %+v, want reading %s on machine %s", reading, res.ReadingID, res.MachineID)
	}
	if !reading.OccurredAt.Equal(epoch) {
		t.Errorf("occurred_at = %v, want %v", reading.OccurredAt, epoch)
	}
}

func TestEvents_NotEmittedOnFailedWrite(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateMachine(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if n := len(f.emitter.types()); n != 0 {
		t.Errorf("emitted %d events for a rejected write", n)
	}
}

func TestEvents_EmitterErrorIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.emitter.err = errors.New("collector down")
	id, err := f.svc.OpenFailure(context.Background(), domain.NewID(), time.Time{})
	if err != nil {
		t.Fatalf("OpenFailure with failing emitter: %v", err)
	}
	if id.IsZero() {
		t.Error("OpenFailure returned a zero id")
	}
}

func TestTracing_SpansForMultiStepOperations(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	flaky := &flakyStore{Store: store.NewMemoryStore(), failUpdate: domain.CollectionMachines, err: errUnavailable}
	svc := New(flaky, WithTracerProvider(tp))
	ctx := context.Background()

	if _, err := svc.RecordReading(ctx, ReadingInput{MachineID: domain.NewID(), Values: map[string]float64{"t": 1}}); !errors.Is(err, ErrCascade) {
		t.Fatalf("RecordReading: got %v, want ErrCascade", err)
	}
	if _, err := svc.RegisterClusterModel(ctx, clusterInput("run-t", false)); err != nil {
		t.Fatalf("RegisterClusterModel: %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "sensors.RecordReading" || spans[1].Name() != "sensors.RegisterClusterModel" {
		t.Errorf("span names = %q, %q", spans[0].Name(), spans[1].Name())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("cascade failure was not recorded on the span")
	}
}

func TestMetrics_CountsCascadeFailures(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	flaky := &flakyStore{Store: store.NewMemoryStore(), failUpdate: domain.CollectionMachines, err: errUnavailable}
	svc := New(flaky, WithMeterProvider(mp))
	for i := 0; i < 2; i++ {
		_, _ = svc.RecordReading(context.Background(), ReadingInput{MachineID: domain.NewID(), Values: map[string]float64{"t": 1}})
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "sensors.cascade.failures" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("data = %T, want metricdata.Sum[int64]", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("cascade failures = %d, want 2", total)
	}
}
