package app

import (
	"context"
	"fmt"
	"os"

	"stagehand/internal/catalog"
	"stagehand/internal/config"
	"stagehand/pkg/logging"
)

// Application represents the main application structure that bootstraps and runs stagehand.
// It encapsulates the loaded configuration and the initialized services.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialize logging, load and validate configuration, build the units
//  2. Execution phase: run startup behind the error boundary until interrupted
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Configures logging based on the debug flag
//  2. Loads the configuration from cfg.ConfigPath (or the default directory)
//  3. Validates it against the known unit ids
//  4. Registers every unit and wires the orchestrator into the API layer
//
// A pre-populated cfg.Settings skips loading, which tests use.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, cfg.Out)

	if cfg.Settings == nil {
		if cfg.ConfigPath == "" {
			cfg.ConfigPath = config.GetDefaultConfigPathOrPanic()
		}
		settings, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		cfg.Settings = &settings
	}

	if err := cfg.Settings.Validate(catalog.Names()); err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The configured level applies unless --debug asked for more.
	if !cfg.Debug && cfg.Settings.Logging.Level != "" {
		if level, ok := logging.ParseLevel(cfg.Settings.Logging.Level); ok && level != appLogLevel {
			logging.InitForCLI(level, cfg.Out)
		}
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the application
//
// Handles graceful shutdown via context cancellation and system signals.
// The method blocks until the application is terminated or encounters an error.
func (a *Application) Run(ctx context.Context) error {
	return run(ctx, a.config, a.services)
}
