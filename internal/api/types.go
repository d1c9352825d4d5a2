package api

import (
	"time"
)

// UnitID identifies a unit. The set of valid ids is closed: an application
// declares it once (see internal/catalog) and the registry rejects anything
// outside it.
type UnitID string

// Mode selects when a unit is initialized.
type Mode string

const (
	// ModeEager units are initialized by the startup run and gate global readiness.
	ModeEager Mode = "eager"
	// ModeLazy units stay Pending until a consumer first asks for them.
	ModeLazy Mode = "lazy"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeEager || m == ModeLazy
}

// State is the lifecycle state of a single unit.
type State string

const (
	StatePending State = "Pending"
	StateLoading State = "Loading"
	StateReady   State = "Ready"
	StateError   State = "Error"
)

// GlobalState is the aggregate readiness computed from all eager units.
type GlobalState string

const (
	GlobalPending GlobalState = "Pending"
	GlobalLoading GlobalState = "Loading"
	GlobalReady   GlobalState = "Ready"
	GlobalError   GlobalState = "Error"
)

// UnitStatus is a read-only view of one unit.
type UnitStatus struct {
	ID           UnitID    `json:"id"`
	Mode         Mode      `json:"mode"`
	State        State     `json:"state"`
	Dependencies []UnitID  `json:"dependencies,omitempty"`
	Error        error     `json:"-"`
	Attempts     int       `json:"attempts"`
	AttemptID    string    `json:"attemptId,omitempty"`
	ReadyAt      time.Time `json:"readyAt,omitempty"`
}

// Snapshot is a consistent view of every unit plus the global state, taken
// under a single lock acquisition.
type Snapshot struct {
	Global  GlobalState  `json:"global"`
	Units   []UnitStatus `json:"units"`
	TakenAt time.Time    `json:"takenAt"`
}

// Failed returns the units currently in Error, in snapshot order.
func (s Snapshot) Failed() []UnitStatus {
	var failed []UnitStatus
	for _, u := range s.Units {
		if u.State == StateError {
			failed = append(failed, u)
		}
	}
	return failed
}

// FirstEagerFailure returns the first eager unit in Error. This is the unit
// that halted startup and the one the boundary names.
func (s Snapshot) FirstEagerFailure() (UnitStatus, bool) {
	for _, u := range s.Units {
		if u.Mode == ModeEager && u.State == StateError {
			return u, true
		}
	}
	return UnitStatus{}, false
}

// Unit returns the status of id, if present in the snapshot.
func (s Snapshot) Unit(id UnitID) (UnitStatus, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitStatus{}, false
}

// EventKind distinguishes unit transitions from global transitions.
type EventKind string

const (
	EventUnit   EventKind = "unit"
	EventGlobal EventKind = "global"
)

// StateChangedEvent is published for every unit transition and for every
// change of the global state.
type StateChangedEvent struct {
	Kind      EventKind   `json:"kind"`
	Unit      UnitID      `json:"unit,omitempty"`
	OldState  State       `json:"oldState,omitempty"`
	NewState  State       `json:"newState,omitempty"`
	OldGlobal GlobalState `json:"oldGlobal,omitempty"`
	NewGlobal GlobalState `json:"newGlobal,omitempty"`
	Error     error       `json:"-"`
	AttemptID string      `json:"attemptId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
