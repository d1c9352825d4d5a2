package app

import (
	"context"

	"github.com/coreos/go-systemd/v22/daemon"

	"stagehand/internal/api"
	"stagehand/pkg/logging"
)

// notifyFunc matches daemon.SdNotify without the unsetEnvironment flag.
type notifyFunc func(state string) (bool, error)

func sdNotify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// notifyWhenReady tells the service manager that stagehand is ready the
// first time the global state becomes Ready. Outside systemd the
// notification is a no-op.
func notifyWhenReady(ctx context.Context, events <-chan api.StateChangedEvent, notify notifyFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Kind != api.EventGlobal || event.NewGlobal != api.GlobalReady {
				continue
			}
			sent, err := notify(daemon.SdNotifyReady)
			switch {
			case err != nil:
				logging.Error("Notify", err, "Failed to send readiness notification")
			case sent:
				logging.Info("Notify", "Readiness notification sent")
			default:
				logging.Debug("Notify", "Not running under systemd, readiness notification skipped")
			}
			return
		}
	}
}
