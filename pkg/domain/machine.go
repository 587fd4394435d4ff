package domain

import "time"

// Machine is a physical machine reporting sensor readings. MachineID is the
// external identifier the machine reports itself with and is unique.
type Machine struct {
	ID        ID        `bson:"_id,omitempty" json:"id"`
	MachineID string    `bson:"machine_id" json:"machine_id"`
	FirstSeen time.Time `bson:"first_seen" json:"first_seen"`
	LastSeen  time.Time `bson:"last_seen" json:"last_seen"`
}

// NewMachine returns a machine first and last seen at now.
func NewMachine(machineID string, now time.Time) (*Machine, error) {
	now = NormalizeTime(now)
	m := &Machine{MachineID: machineID, FirstSeen: now, LastSeen: now}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (Machine) Collection() string { return CollectionMachines }

func (m *Machine) DocumentID() ID      { return m.ID }
func (m *Machine) SetDocumentID(id ID) { m.ID = id }

// Validate implements Entity.
func (m *Machine) Validate() error {
	if blank(m.MachineID) {
		return invalid("machine", "machine_id", "must not be empty")
	}
	if err := requireTime("machine", "first_seen", m.FirstSeen); err != nil {
		return err
	}
	if err := requireTime("machine", "last_seen", m.LastSeen); err != nil {
		return err
	}
	if m.LastSeen.Before(m.FirstSeen) {
		return invalid("machine", "last_seen", "must not precede first_seen")
	}
	return nil
}

func (m Machine) String() string {
	return "Machine " + m.MachineID
}
