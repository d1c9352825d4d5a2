// Package logging provides subsystem-tagged structured logging for stagehand.
//
// It is a thin layer over log/slog. Every entry carries a "subsystem"
// attribute and, for errors, an "error" attribute:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Orchestrator", "Unit %s is ready", id)
//	logging.Error("Orchestrator", err, "Unit %s failed to initialize", id)
//
// Subsystems used across the code base:
//
//   - Bootstrap: application wiring and configuration loading
//   - Orchestrator: unit transitions and startup runs
//   - Registry: unit registration
//   - Session: identity token watcher
//   - Boundary: failure rendering and user actions
//   - Notify: service manager readiness notification
//
// Sinks can be attached with AddSink to observe entries in-process; they
// receive only entries that pass the configured level.
package logging
