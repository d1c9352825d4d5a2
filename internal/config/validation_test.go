package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUnits = []string{"session", "remote", "devices", "alarms", "endpoints", "files"}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		section string
		field   string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown order policy",
			mutate:  func(c *Config) { c.Startup.OrderPolicy = "random" },
			section: "startup",
			field:   "orderPolicy",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Startup.MaxConcurrency = -1 },
			section: "startup",
			field:   "maxConcurrency",
		},
		{
			name:    "unknown hint entry",
			mutate:  func(c *Config) { c.Startup.HintOrder = []string{"remote", "printer"} },
			section: "startup",
			field:   "hintOrder",
		},
		{
			name:    "duplicate hint entry",
			mutate:  func(c *Config) { c.Startup.HintOrder = []string{"remote", "remote"} },
			section: "startup",
			field:   "hintOrder",
		},
		{
			name:    "unknown unit override",
			mutate:  func(c *Config) { c.Units = map[string]UnitConfig{"printer": {Mode: "lazy"}} },
			section: "units",
			field:   "printer",
		},
		{
			name:    "invalid unit mode",
			mutate:  func(c *Config) { c.Units = map[string]UnitConfig{"files": {Mode: "sometimes"}} },
			section: "units",
			field:   "files.mode",
		},
		{
			name:    "relative base URL",
			mutate:  func(c *Config) { c.Remote.BaseURL = "/api" },
			section: "remote",
			field:   "baseURL",
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Remote.BaseURL = "" },
			section: "remote",
			field:   "baseURL",
		},
		{
			name:    "watch without token file",
			mutate:  func(c *Config) { c.Session.TokenFile = "" },
			section: "session",
			field:   "tokenFile",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			section: "logging",
			field:   "level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate(testUnits)
			if tt.section == "" {
				assert.NoError(t, err)
				return
			}

			var collection *ConfigurationErrorCollection
			require.True(t, errors.As(err, &collection), "expected a ConfigurationErrorCollection, got %v", err)
			require.Equal(t, 1, collection.Count())
			assert.Equal(t, tt.section, collection.Errors[0].Section)
			assert.Equal(t, tt.field, collection.Errors[0].Field)
			assert.Equal(t, "validation", collection.Errors[0].ErrorType)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Startup.OrderPolicy = "random"
	cfg.Remote.Timeout = -1
	cfg.Logging.Level = "loud"

	err := cfg.Validate(testUnits)
	var collection *ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Equal(t, 3, collection.Count())
	assert.Len(t, collection.GetErrorsBySection("remote"), 1)
	assert.Contains(t, err.Error(), "3 configuration errors")
}
