package api

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyNotReadyError is recorded on a unit whose initialization was
// attempted while one of its declared dependencies was not Ready. It signals
// an ordering defect and is never retried automatically.
type DependencyNotReadyError struct {
	// Unit is the unit that could not start.
	Unit UnitID

	// Dependency is the first dependency found not Ready.
	Dependency UnitID

	// State is the state the dependency was observed in.
	State State
}

// Error implements the error interface for DependencyNotReadyError.
func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("unit %s: dependency %s is not ready (state %s)", e.Unit, e.Dependency, e.State)
}

// FactoryError wraps the error returned by a unit's factory. The original
// error is kept verbatim and is reachable through errors.Is and errors.As.
type FactoryError struct {
	// Unit is the unit whose factory failed.
	Unit UnitID

	// Err is the error returned (or the panic recovered) from the factory.
	Err error
}

// Error implements the error interface for FactoryError.
func (e *FactoryError) Error() string {
	return fmt.Sprintf("unit %s: factory failed: %v", e.Unit, e.Err)
}

// Unwrap returns the factory's own error.
func (e *FactoryError) Unwrap() error {
	return e.Err
}

// UnknownUnitError reports a reference to an id that was never registered,
// or that is not part of the declared id set.
//
// When ReferencedBy is set the reference came from that unit's dependency
// list; the error is then fatal to that unit's initialization.
type UnknownUnitError struct {
	// Unit is the id that could not be resolved.
	Unit UnitID

	// ReferencedBy is the unit that declared the dependency, if any.
	ReferencedBy UnitID
}

// Error implements the error interface for UnknownUnitError.
func (e *UnknownUnitError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unit %s: unknown dependency %s", e.ReferencedBy, e.Unit)
	}
	return fmt.Sprintf("unknown unit %s", e.Unit)
}

// OrderViolation describes an eager unit placed before one of its eager
// dependencies in the startup hint.
type OrderViolation struct {
	Unit       UnitID
	Dependency UnitID
}

// HintOrderError is returned by a startup run whose hint order is not a valid
// topological order of the eager units.
type HintOrderError struct {
	// Unknown lists hint entries that are not registered units.
	Unknown []UnitID

	// Cycle holds one dependency cycle among eager units, if any.
	Cycle []UnitID

	// Violations lists dependents placed before their dependencies.
	Violations []OrderViolation
}

// Error implements the error interface for HintOrderError.
func (e *HintOrderError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown units in hint order: %s", joinIDs(e.Unknown, ", ")))
	}
	if len(e.Cycle) > 0 {
		parts = append(parts, fmt.Sprintf("dependency cycle: %s", joinIDs(e.Cycle, " -> ")))
	}
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s is ordered before its dependency %s", v.Unit, v.Dependency))
	}
	if len(parts) == 0 {
		return "invalid hint order"
	}
	return "invalid hint order: " + strings.Join(parts, "; ")
}

func joinIDs(ids []UnitID, sep string) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, sep)
}

// Common errors for registry and orchestrator operations.
var (
	// ErrAlreadyRegistered is returned when a unit id is registered twice.
	ErrAlreadyRegistered = errors.New("unit already registered")

	// ErrEmptyID is returned when a unit is registered without an id.
	ErrEmptyID = errors.New("unit has empty id")

	// ErrNilFactory is returned when a unit is registered without a factory.
	ErrNilFactory = errors.New("unit has nil factory")

	// ErrInvalidMode is returned for a mode other than eager or lazy.
	ErrInvalidMode = errors.New("invalid unit mode")

	// ErrSelfDependency is returned when a unit lists itself as a dependency.
	ErrSelfDependency = errors.New("unit depends on itself")

	// ErrNotRetryable is returned when retry is requested for a unit that is
	// neither in Error nor already Ready.
	ErrNotRetryable = errors.New("unit is not in error state")

	// ErrUnitNotReady is returned when an instance is requested from an eager
	// unit that has not been started yet.
	ErrUnitNotReady = errors.New("unit is not ready")

	// ErrStartupInProgress is returned when a startup run is requested while
	// another one is still running.
	ErrStartupInProgress = errors.New("startup already in progress")

	// ErrStartupInterrupted is returned by a startup run that stopped because
	// the unit it was initializing was reset or the orchestrator shut down.
	ErrStartupInterrupted = errors.New("startup interrupted")

	// ErrNoInstance is the cause recorded for a factory that reported success
	// without returning an instance.
	ErrNoInstance = errors.New("factory returned no instance")

	// ErrConsumerNotRegistered indicates no orchestrator has registered itself
	// with the API layer yet.
	ErrConsumerNotRegistered = errors.New("consumer handler not registered")
)

// IsUnknownUnit checks if an error is or wraps an UnknownUnitError.
func IsUnknownUnit(err error) bool {
	var target *UnknownUnitError
	return errors.As(err, &target)
}

// IsDependencyNotReady checks if an error is or wraps a DependencyNotReadyError.
func IsDependencyNotReady(err error) bool {
	var target *DependencyNotReadyError
	return errors.As(err, &target)
}

// IsFactoryError checks if an error is or wraps a FactoryError.
func IsFactoryError(err error) bool {
	var target *FactoryError
	return errors.As(err, &target)
}

// Cause strips the taxonomy wrapper and returns the error a user should see:
// the factory's own error for FactoryError, err itself otherwise.
func Cause(err error) error {
	var fe *FactoryError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err
	}
	return err
}
