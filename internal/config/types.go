package config

import "time"

// Config is the top-level configuration structure for stagehand.
type Config struct {
	Startup StartupConfig         `yaml:"startup"`
	Units   map[string]UnitConfig `yaml:"units,omitempty"`
	Remote  RemoteConfig          `yaml:"remote"`
	Session SessionConfig         `yaml:"session"`
	Logging LoggingConfig         `yaml:"logging"`
}

// StartupConfig controls the startup run.
type StartupConfig struct {
	Parallel       bool     `yaml:"parallel,omitempty"`       // Start independent eager units concurrently
	MaxConcurrency int      `yaml:"maxConcurrency,omitempty"` // Bound for parallel startup, 0 means unbounded
	OrderPolicy    string   `yaml:"orderPolicy,omitempty"`    // strict or reorder
	HintOrder      []string `yaml:"hintOrder,omitempty"`      // Overrides the built-in hint order
}

// UnitConfig overrides the defaults of a single unit.
type UnitConfig struct {
	Mode string `yaml:"mode,omitempty"` // eager or lazy
}

// RemoteConfig configures the remote data API client.
type RemoteConfig struct {
	BaseURL    string        `yaml:"baseURL,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	PingOnInit bool          `yaml:"pingOnInit,omitempty"` // Fail the remote unit when the API is unreachable
}

// SessionConfig configures the identity side-channel.
type SessionConfig struct {
	TokenFile string `yaml:"tokenFile,omitempty"` // Relative paths resolve against the config directory
	Watch     bool   `yaml:"watch,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

const (
	OrderPolicyStrict  = "strict"
	OrderPolicyReorder = "reorder"
)
