package boundary

import (
	"fmt"
	"os"
	"syscall"

	"stagehand/pkg/logging"
)

// ReloadFunc restarts the process. It only returns on failure.
type ReloadFunc func() error

// Reexec replaces the current process with a fresh copy of itself, keeping
// the arguments and environment.
func Reexec() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	logging.Info("Boundary", "Reloading %s", executable)
	if err := syscall.Exec(executable, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("failed to re-exec %s: %w", executable, err)
	}
	return nil
}
