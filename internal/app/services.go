package app

import (
	"context"
	"fmt"

	"stagehand/internal/api"
	"stagehand/internal/catalog"
	"stagehand/internal/orchestrator"
	"stagehand/internal/session"
	"stagehand/internal/units"
	"stagehand/pkg/logging"
)

// Services holds all initialized services and APIs used by the application.
//
// Field descriptions:
//   - Registry: the units of the application catalog
//   - Orchestrator: drives the units through their lifecycle
//   - ConsumerAPI: the API-layer view handed to every collaborator
//   - Watcher: the session token watcher, nil when watching is disabled
type Services struct {
	Registry     *units.Registry
	Orchestrator *orchestrator.Orchestrator
	ConsumerAPI  api.ConsumerAPI
	Watcher      *session.Watcher
}

// InitializeServices creates and registers all required services for the application.
//
// Initialization Sequence:
//  1. Unit registry from the catalog, with configured mode overrides and hint order
//  2. Orchestrator with the startup settings; the session unit receives SetSession
//  3. Orchestrator adapter registered with the API layer
//  4. Session watcher, which reaches the orchestrator only through the API layer
func InitializeServices(cfg *Config) (*Services, error) {
	settings := cfg.Settings

	registry, err := catalog.NewRegistry(*settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build unit registry: %w", err)
	}
	logging.Info("Bootstrap", "Registered %d units", registry.Len())

	orch := orchestrator.New(registry, orchestrator.Config{
		Parallel:       settings.Startup.Parallel,
		MaxConcurrency: settings.Startup.MaxConcurrency,
		OrderPolicy:    orchestrator.OrderPolicy(settings.Startup.OrderPolicy),
		SessionUnit:    catalog.Session,
	})

	// APIs need handlers to be registered first
	orchAdapter := orchestrator.NewAPIAdapter(orch)
	orchAdapter.Register()

	consumerAPI := api.NewConsumerAPI()

	var watcher *session.Watcher
	if settings.Session.Watch {
		watcher, err = session.NewWatcher(session.WatcherConfig{
			TokenFile: settings.Session.TokenFile,
			Setter:    consumerAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create session watcher: %w", err)
		}
	}

	return &Services{
		Registry:     registry,
		Orchestrator: orch,
		ConsumerAPI:  consumerAPI,
		Watcher:      watcher,
	}, nil
}

// retry is the boundary's retry action: failed units are retried, then the
// interrupted startup run resumes.
func (s *Services) retry(ctx context.Context) error {
	if err := s.Orchestrator.RetryAll(ctx); err != nil {
		return err
	}
	return s.Orchestrator.Start(ctx)
}
