package sensors

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"
)

// RegisterMachine creates the machine known by externalID if it does not
// exist and refreshes last_seen either way, in one atomic upsert. created
// reports whether this call inserted it.
func (s *Service) RegisterMachine(ctx context.Context, externalID string) (m *domain.Machine, created bool, err error) {
	m, err = domain.NewMachine(externalID, s.clock())
	if err != nil {
		return nil, false, err
	}
	ctx, span := s.start(ctx, "RegisterMachine")
	defer func() { finish(span, err) }()

	res, err := s.store.Upsert(ctx, domain.CollectionMachines,
		bson.M{"machine_id": externalID},
		bson.M{"last_seen": m.LastSeen},
		bson.M{"first_seen": m.FirstSeen},
	)
	if err != nil {
		return nil, false, fmt.Errorf("register machine %q: %w", externalID, err)
	}
	if res.Created {
		m.ID = res.ID
		s.emit(ctx, EventMachineRegistered, m.ID, m.ID, map[string]string{"machine_id": externalID})
		return m, true, nil
	}

	existing, err := s.Machine(ctx, res.ID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("register machine %q: %s removed concurrently", externalID, res.ID)
	}
	return existing, false, nil
}

// ensureMachine returns the id of the machine known by externalID, creating
// it when absent. An existing machine is not modified.
func (s *Service) ensureMachine(ctx context.Context, externalID string) (domain.ID, bool, error) {
	m, err := domain.NewMachine(externalID, s.clock())
	if err != nil {
		return domain.NilID, false, err
	}
	res, err := s.store.Upsert(ctx, domain.CollectionMachines,
		bson.M{"machine_id": externalID},
		nil,
		bson.M{"first_seen": m.FirstSeen, "last_seen": m.LastSeen},
	)
	if err != nil {
		return domain.NilID, false, fmt.Errorf("register machine %q: %w", externalID, err)
	}
	if res.Created {
		s.emit(ctx, EventMachineRegistered, res.ID, res.ID, map[string]string{"machine_id": externalID})
	}
	return res.ID, res.Created, nil
}

// CreateMachine inserts a new machine. An external id that is already taken
// fails with a duplicate key error.
func (s *Service) CreateMachine(ctx context.Context, externalID string) (domain.ID, error) {
	m, err := domain.NewMachine(externalID, s.clock())
	if err != nil {
		return domain.NilID, err
	}
	id, err := store.Create(ctx, s.store, m)
	if err != nil {
		return domain.NilID, err
	}
	s.emit(ctx, EventMachineRegistered, id, id, map[string]string{"machine_id": externalID})
	return id, nil
}

// TouchMachine sets the machine's last_seen to now. It reports false when
// the machine does not exist.
func (s *Service) TouchMachine(ctx context.Context, machineID domain.ID) (bool, error) {
	return store.Update(ctx, s.store, domain.CollectionMachines, machineID, bson.M{"last_seen": s.clock()})
}

// Machine returns the machine with id, or nil.
func (s *Service) Machine(ctx context.Context, id domain.ID) (*domain.Machine, error) {
	return store.GetByID[domain.Machine](ctx, s.store, domain.CollectionMachines, id)
}

// MachineByExternalID returns the machine reporting as externalID, or nil.
func (s *Service) MachineByExternalID(ctx context.Context, externalID string) (*domain.Machine, error) {
	return store.FindOne[domain.Machine](ctx, s.store, domain.CollectionMachines, bson.M{"machine_id": externalID})
}
