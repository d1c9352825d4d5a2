package orchestrator

import (
	"stagehand/internal/api"
	"stagehand/pkg/logging"
)

// SetSession stores value verbatim as the instance of the session unit,
// which becomes Ready. Replacing a previous value, for example after a token
// refresh, swaps the instance only; no other unit changes state. A nil value
// signs out: the session unit and every unit transitively depending on it
// return to Pending.
func (o *Orchestrator) SetSession(value any) error {
	id := o.cfg.SessionUnit
	if id == "" {
		return &api.UnknownUnitError{Unit: "session"}
	}
	if _, ok := o.registry.Get(id); !ok {
		return &api.UnknownUnitError{Unit: id}
	}

	if value == nil {
		logging.Info("Orchestrator", "Session cleared, resetting dependent units")
		return o.Reset(id)
	}

	t, err := o.registry.SetInstance(id, value)
	if err != nil {
		return err
	}

	if t.From == api.StateReady {
		logging.Info("Orchestrator", "Session replaced")
	} else {
		logging.Info("Orchestrator", "Session set")
	}
	o.record(t)
	return nil
}

// Session returns the current session value, nil when signed out.
func (o *Orchestrator) Session() any {
	if o.cfg.SessionUnit == "" {
		return nil
	}
	return o.registry.Instance(o.cfg.SessionUnit)
}
