package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"stagehand/internal/api"
	"stagehand/internal/config"
	"stagehand/internal/session"
	"stagehand/internal/units"
	"stagehand/pkg/logging"
)

// ErrSessionExpired is returned by units that need a valid session token.
var ErrSessionExpired = errors.New("session token is missing or expired")

// Definitions returns the unit definitions of the application with the mode
// overrides of cfg applied.
func Definitions(cfg config.Config) []units.Definition {
	defs := []units.Definition{
		{ID: Session, Mode: api.ModeLazy, Factory: sessionFactory(cfg.Session.TokenFile)},
		{ID: Remote, Mode: api.ModeEager, Factory: remoteFactory(cfg.Remote)},
		{ID: Devices, Mode: api.ModeEager, Factory: devicesFactory, Dependencies: []api.UnitID{Remote}},
		{ID: Alarms, Mode: api.ModeEager, Factory: alarmsFactory, Dependencies: []api.UnitID{Remote, Devices}},
		{ID: Endpoints, Mode: api.ModeEager, Factory: endpointsFactory, Dependencies: []api.UnitID{Remote}},
		{ID: Files, Mode: api.ModeLazy, Factory: filesFactory, Dependencies: []api.UnitID{Remote, Session}},
	}

	for i := range defs {
		if override, ok := cfg.Units[string(defs[i].ID)]; ok && override.Mode != "" {
			logging.Info("Bootstrap", "Unit %s mode overridden: %s -> %s", defs[i].ID, defs[i].Mode, override.Mode)
			defs[i].Mode = api.Mode(override.Mode)
		}
	}
	return defs
}

// HintOrder returns the configured hint order, or the default one.
func HintOrder(cfg config.Config) []api.UnitID {
	if len(cfg.Startup.HintOrder) == 0 {
		return DefaultHintOrder()
	}
	res := make([]api.UnitID, len(cfg.Startup.HintOrder))
	for i, id := range cfg.Startup.HintOrder {
		res[i] = api.UnitID(id)
	}
	return res
}

// NewRegistry creates a registry over All and registers every definition.
func NewRegistry(cfg config.Config) (*units.Registry, error) {
	reg := units.NewRegistry(All()...)
	for _, def := range Definitions(cfg) {
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("failed to register unit %s: %w", def.ID, err)
		}
	}
	reg.SetHintOrder(HintOrder(cfg))
	return reg, nil
}

func sessionFactory(tokenFile string) units.Factory {
	return func(ctx context.Context, deps units.Dependencies) (any, error) {
		if tokenFile == "" {
			return nil, fmt.Errorf("not signed in: %w", ErrSessionExpired)
		}
		token, err := session.ReadToken(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("not signed in: %w", err)
		}
		return token, nil
	}
}

func remoteFactory(cfg config.RemoteConfig) units.Factory {
	return func(ctx context.Context, deps units.Dependencies) (any, error) {
		client, err := NewRemoteClient(cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		if cfg.PingOnInit {
			if err := client.Ping(ctx); err != nil {
				return nil, err
			}
		}
		return client, nil
	}
}

func devicesFactory(ctx context.Context, deps units.Dependencies) (any, error) {
	remote, err := units.Dep[*RemoteClient](deps, Remote)
	if err != nil {
		return nil, err
	}
	return NewDeviceService(remote), nil
}

func alarmsFactory(ctx context.Context, deps units.Dependencies) (any, error) {
	remote, err := units.Dep[*RemoteClient](deps, Remote)
	if err != nil {
		return nil, err
	}
	devices, err := units.Dep[*DeviceService](deps, Devices)
	if err != nil {
		return nil, err
	}
	return NewAlarmService(remote, devices), nil
}

func endpointsFactory(ctx context.Context, deps units.Dependencies) (any, error) {
	remote, err := units.Dep[*RemoteClient](deps, Remote)
	if err != nil {
		return nil, err
	}
	return NewEndpointService(remote), nil
}

func filesFactory(ctx context.Context, deps units.Dependencies) (any, error) {
	remote, err := units.Dep[*RemoteClient](deps, Remote)
	if err != nil {
		return nil, err
	}
	token, err := units.Dep[*oauth2.Token](deps, Session)
	if err != nil {
		return nil, err
	}
	if !token.Valid() {
		return nil, ErrSessionExpired
	}

	// reuse the remote transport for authenticated requests; the token is
	// looked up per request, not cached
	base := remote.HTTPClient()
	return &FileService{
		baseURL: remote.BaseURL(),
		httpClient: &http.Client{
			Timeout: base.Timeout,
			Transport: &oauth2.Transport{
				Base:   base.Transport,
				Source: sessionTokenSource{initial: token},
			},
		},
	}, nil
}

// sessionTokenSource serves the token currently held by the session unit, so
// a FileService keeps working after the session is replaced by a refreshed
// token. It falls back to the token the service was built with when the
// session unit is not Ready or no orchestrator is registered.
type sessionTokenSource struct {
	initial *oauth2.Token
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	if token, ok := api.ContextAs[*oauth2.Token](api.GetConsumer(), Session); ok {
		return token, nil
	}
	return s.initial, nil
}
