// Package units holds the declarative unit registry.
//
// A unit is a named, independently constructible subsystem: an id from a
// closed set, a factory, a set of dependencies and a mode (eager or lazy).
// The Registry stores definitions together with each unit's state
// (Pending, Loading, Ready, Error), instance, error and attempt bookkeeping.
//
// The registry does not decide when units start; that is the orchestrator's
// job. It offers atomic transitions instead:
//
//   - Begin gates a unit on its dependencies and marks it Loading.
//   - Complete records a factory result, discarding superseded attempts.
//   - SetInstance assigns an externally owned instance (the session).
//   - Reset and Teardown return units to Pending.
//
// Every transition method returns the Transition values it caused so that
// callers can publish them without holding the registry lock.
package units
