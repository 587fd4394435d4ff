package sensors

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

// OpenFailure stores a new active failure for the machine starting at start,
// or now when start is zero. It does not check for a failure already open on
// the same machine; use ActiveFailuresForMachine first when that matters.
func (s *Service) OpenFailure(ctx context.Context, machineID domain.ID, start time.Time) (domain.ID, error) {
	f, err := domain.NewFailure(machineID, s.orNow(start))
	if err != nil {
		return domain.NilID, err
	}
	id, err := store.Create(ctx, s.store, f)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventFailureOpened, id, machineID, nil)
	return id, nil
}

// ResolveFailure ends an active failure at end, or now when end is zero.
// Only an active failure is updated, so a failure is resolved at most once:
// the result is false when the failure does not exist or was already
// resolved, and the stored document is left unchanged.
func (s *Service) ResolveFailure(ctx context.Context, failureID domain.ID, end time.Time) (bool, error) {
	ok, err := s.store.UpdateOne(ctx, domain.CollectionFailures,
		bson.M{"_id": failureID, "is_active": true},
		bson.M{"end_time": s.orNow(end), "is_active": false},
	)
	if err != nil || !ok {
		return false, err
	}
	s.emit(ctx, EventFailureResolved, failureID, domain.NilID, nil)
	return true, nil
}

// Failure returns the failure with id, or nil.
func (s *Service) Failure(ctx context.Context, id domain.ID) (*domain.Failure, error) {
	return store.GetByID[domain.Failure](ctx, s.store, domain.CollectionFailures, id)
}

// MachineFailures returns the machine's failures, most recent start first.
func (s *Service) MachineFailures(ctx context.Context, machineID domain.ID, opts ...store.QueryOption) ([]domain.Failure, error) {
	return s.failures(ctx, bson.M{"machine_id": machineID}, opts)
}

// ActiveFailures returns every active failure across all machines, most
// recent start first.
func (s *Service) ActiveFailures(ctx context.Context) ([]domain.Failure, error) {
	return s.failures(ctx, bson.M{"is_active": true}, nil)
}

// ActiveFailuresForMachine returns the machine's active failures. More than
// one means two opens raced.
func (s *Service) ActiveFailuresForMachine(ctx context.Context, machineID domain.ID) ([]domain.Failure, error) {
	return s.failures(ctx, bson.M{"machine_id": machineID, "is_active": true}, nil)
}

func (s *Service) failures(ctx context.Context, filter bson.M, opts []store.QueryOption) ([]domain.Failure, error) {
	opts = append([]store.QueryOption{store.SortBy("start_time", store.Descending)}, opts...)
	return store.Query[domain.Failure](ctx, s.store, domain.CollectionFailures, filter, opts...)
}
