package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagehand/internal/boundary"
	"stagehand/pkg/logging"
)

// shutdownTimeout bounds closing of unit instances and waiting for an
// interrupted startup run.
const shutdownTimeout = 10 * time.Second

// run starts every eager unit behind the error boundary and then blocks
// until interrupted.
//
// Behavior:
//   - Starts the session watcher, if configured
//   - Runs startup while the boundary shows progress
//   - On failure the boundary offers retry, reload and quit; with NoPrompt
//     the failure is returned instead
//   - Once ready, blocks waiting for interrupt signals (SIGINT, SIGTERM)
//   - Shuts every unit down before returning
func run(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if services.Watcher != nil {
		if err := services.Watcher.Start(); err != nil {
			return err
		}
		defer services.Watcher.Stop()
	}

	// subscribe before startup so no transition is missed
	go notifyWhenReady(ctx, services.ConsumerAPI.Subscribe(), sdNotify)

	tail := boundary.NewLogTail(boundary.DefaultTailSize)
	logging.AddSink(tail.Add)

	opts := boundary.Options{
		Out:    cfg.Out,
		Retry:  services.retry,
		Reload: boundary.Reexec,
		Tail:   tail,
	}
	if !cfg.NoPrompt {
		reader, err := boundary.NewLineReader()
		if err != nil {
			logging.Warn("Boundary", "Interactive prompt not available: %v", err)
		} else {
			defer reader.Close()
			opts.Reader = reader
			opts.Indicator = boundary.NewSpinner(os.Stderr)
		}
	}
	b := boundary.New(services.ConsumerAPI, opts)

	startDone := make(chan struct{})
	go func() {
		defer close(startDone)
		if err := services.Orchestrator.Start(ctx); err != nil {
			logging.Debug("Bootstrap", "Startup run ended with error: %v", err)
		}
	}()

	action, err := b.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		err = nil
	case err != nil:
	case action == boundary.ActionQuit:
		logging.Info("Bootstrap", "Quit requested")
	default:
		logging.Info("Bootstrap", "All units started. Press Ctrl+C to stop.")
		<-ctx.Done()
	}

	logging.Info("Bootstrap", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-startDone:
	case <-shutdownCtx.Done():
		logging.Warn("Bootstrap", "Startup run did not finish before shutdown")
	}
	if shutdownErr := services.Orchestrator.Shutdown(shutdownCtx); shutdownErr != nil {
		logging.Error("Bootstrap", shutdownErr, "Shutdown completed with errors")
	}
	return err
}
