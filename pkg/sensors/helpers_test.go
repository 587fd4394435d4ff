package sensors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

var epoch = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// recordingEmitter keeps every event and optionally fails.
type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingEmitter) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// flakyStore fails inserts or updates on one collection and counts calls.
type flakyStore struct {
	store.Store
	mu         sync.Mutex
	failInsert string
	failUpdate string
	err        error
	calls      int
}

func (f *flakyStore) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *flakyStore) InsertOne(ctx context.Context, coll string, doc any) (domain.ID, error) {
	f.count()
	if coll == f.failInsert {
		return domain.NilID, f.err
	}
	return f.Store.InsertOne(ctx, coll, doc)
}

func (f *flakyStore) Upsert(ctx context.Context, coll string, filter, set, onInsert bson.M) (store.UpsertResult, error) {
	f.count()
	return f.Store.Upsert(ctx, coll, filter, set, onInsert)
}

func (f *flakyStore) UpdateOne(ctx context.Context, coll string, filter, set bson.M) (bool, error) {
	f.count()
	if coll == f.failUpdate {
		return false, f.err
	}
	return f.Store.UpdateOne(ctx, coll, filter, set)
}

func (f *flakyStore) UpdateMany(ctx context.Context, coll string, filter, set bson.M) (int64, error) {
	f.count()
	if coll == f.failUpdate {
		return 0, f.err
	}
	return f.Store.UpdateMany(ctx, coll, filter, set)
}

var errUnavailable = errors.New("store unavailable")

type fixture struct {
	svc     *Service
	store   *store.MongoStore
	clock   *fakeClock
	emitter *recordingEmitter
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	if err := store.Provision(context.Background(), s); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	f := &fixture{store: s, clock: newFakeClock(), emitter: &recordingEmitter{}}
	opts = append([]Option{WithClock(f.clock.Now), WithEmitter(f.emitter)}, opts...)
	f.svc = New(s, opts...)
	return f
}

func (f *fixture) machine(t *testing.T, externalID string) *domain.Machine {
	t.Helper()
	m, _, err := f.svc.RegisterMachine(context.Background(), externalID)
	if err != nil {
		t.Fatalf("RegisterMachine(%q): %v", externalID, err)
	}
	return m
}

func (f *fixture) reading(t *testing.T, machineID domain.ID, ts time.Time) domain.ID {
	t.Helper()
	id, err := f.svc.RecordReading(context.Background(), ReadingInput{
		MachineID: machineID,
		Values:    map[string]float64{"temperature": 70},
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	return id
}
