// Package app bootstraps and runs stagehand.
//
// Bootstrap loads the configuration from the config directory
// (~/.config/stagehand by default), validates it against the unit catalog,
// registers every unit and wires the orchestrator into the API layer. From
// then on collaborators such as the session watcher and the error boundary
// talk to the orchestrator through api.ConsumerAPI only.
//
// Run starts the eager units behind the error boundary, sends a systemd
// readiness notification once the global state first becomes Ready, and
// tears every unit down on SIGINT or SIGTERM.
//
// Example:
//
//	cfg := app.NewConfig(debug, noPrompt, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
