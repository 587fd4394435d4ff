package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sensor-failure-detection/shared/pkg/sensors"
)

type slowEmitter struct {
	mu     sync.Mutex
	events []sensors.Event
	delay  time.Duration
	err    error
}

func (s *slowEmitter) Emit(ctx context.Context, event sensors.Event) error {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *slowEmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestAsyncEmitter_Drain(t *testing.T) {
	inner := &slowEmitter{delay: 20 * time.Millisecond}
	a := NewAsyncEmitter(inner, nil)
	for i := 0; i < 5; i++ {
		if err := a.Emit(context.Background(), sensors.Event{Type: sensors.EventReadingRecorded}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := a.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := inner.count(); got != 5 {
		t.Errorf("events = %d, want 5", got)
	}
}

func TestAsyncEmitter_CallerCancellation(t *testing.T) {
	inner := &slowEmitter{delay: 10 * time.Millisecond}
	a := NewAsyncEmitter(inner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	_ = a.Emit(ctx, sensors.Event{Type: sensors.EventMachineRegistered})
	cancel()
	if err := a.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := inner.count(); got != 1 {
		t.Errorf("events = %d, want 1 despite caller cancellation", got)
	}
}

func TestAsyncEmitter_ErrorCallback(t *testing.T) {
	boom := errors.New("export failed")
	inner := &slowEmitter{err: boom}
	var mu sync.Mutex
	var got []sensors.EventType
	a := NewAsyncEmitter(inner, func(e sensors.Event, err error) {
		if !errors.Is(err, boom) {
			t.Errorf("callback err = %v, want %v", err, boom)
		}
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})
	if err := a.Emit(context.Background(), sensors.Event{Type: sensors.EventFailureOpened}); err != nil {
		t.Fatalf("Emit should not surface errors, got %v", err)
	}
	_ = a.Drain(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != sensors.EventFailureOpened {
		t.Errorf("callback events = %v", got)
	}
}

func TestAsyncEmitter_DrainTimeout(t *testing.T) {
	inner := &slowEmitter{delay: time.Second}
	a := NewAsyncEmitter(inner, nil)
	_ = a.Emit(context.Background(), sensors.Event{Type: sensors.EventDriftRecorded})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := a.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain = %v, want DeadlineExceeded", err)
	}
}

func TestAsyncEmitter_NilInner(t *testing.T) {
	a := NewAsyncEmitter(nil, nil)
	if err := a.Emit(context.Background(), sensors.Event{}); err != nil {
		t.Errorf("Emit = %v", err)
	}
	if err := a.Drain(context.Background()); err != nil {
		t.Errorf("Drain = %v", err)
	}
}
