package telemetry

import (
	"context"
	"sync"
	"time"

	"sensor-failure-detection/shared/pkg/sensors"
)

// DefaultEmitTimeout bounds a single background emit.
const DefaultEmitTimeout = 5 * time.Second

// AsyncEmitter runs Emit of the wrapped emitter in a goroutine so writes are
// not held up by the export pipeline. Emit always returns nil; failures go to
// the error callback.
type AsyncEmitter struct {
	inner   sensors.EventEmitter
	onError func(sensors.Event, error)
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncEmitter wraps inner. onError may be nil.
func NewAsyncEmitter(inner sensors.EventEmitter, onError func(sensors.Event, error)) *AsyncEmitter {
	return &AsyncEmitter{inner: inner, onError: onError, timeout: DefaultEmitTimeout}
}

// Emit starts the inner emit with a fresh context so the caller's cancellation
// does not abort it.
func (a *AsyncEmitter) Emit(_ context.Context, event sensors.Event) error {
	if a.inner == nil {
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.inner.Emit(ctx, event); err != nil && a.onError != nil {
			a.onError(event, err)
		}
	}()
	return nil
}

// Drain waits for in-flight emits or until ctx is done.
func (a *AsyncEmitter) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
