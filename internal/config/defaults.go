package config

import "time"

const (
	// DefaultRemoteBaseURL is where the remote data API is expected by default
	DefaultRemoteBaseURL = "http://localhost:8080/api"

	// DefaultRemoteTimeout bounds every remote API request
	DefaultRemoteTimeout = 10 * time.Second

	// DefaultTokenFile is the session token file name inside the config directory
	DefaultTokenFile = "token.json"

	// DefaultMaxConcurrency bounds parallel startup
	DefaultMaxConcurrency = 4
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Startup: StartupConfig{
			Parallel:       false,
			MaxConcurrency: DefaultMaxConcurrency,
			OrderPolicy:    OrderPolicyStrict,
		},
		Remote: RemoteConfig{
			BaseURL: DefaultRemoteBaseURL,
			Timeout: DefaultRemoteTimeout,
		},
		Session: SessionConfig{
			TokenFile: DefaultTokenFile,
			Watch:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
