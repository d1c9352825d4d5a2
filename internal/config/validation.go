package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"stagehand/pkg/logging"
)

// Validate checks the configuration against the set of known unit ids. All
// problems are collected; the returned error is a
// *ConfigurationErrorCollection or nil.
func (c Config) Validate(knownUnits []string) error {
	errs := NewConfigurationErrorCollection()

	switch c.Startup.OrderPolicy {
	case "", OrderPolicyStrict, OrderPolicyReorder:
	default:
		errs.AddValidation("startup", "orderPolicy",
			fmt.Sprintf("unknown order policy %q", c.Startup.OrderPolicy),
			"use 'strict' to reject an invalid hint order or 'reorder' to repair it")
	}
	if c.Startup.MaxConcurrency < 0 {
		errs.AddValidation("startup", "maxConcurrency", "must not be negative")
	}
	seen := make(map[string]bool, len(c.Startup.HintOrder))
	for _, id := range c.Startup.HintOrder {
		if !slices.Contains(knownUnits, id) {
			errs.AddValidation("startup", "hintOrder", fmt.Sprintf("unknown unit %q", id), knownUnitsHint(knownUnits))
		}
		if seen[id] {
			errs.AddValidation("startup", "hintOrder", fmt.Sprintf("unit %q listed twice", id))
		}
		seen[id] = true
	}

	for _, id := range sortedKeys(c.Units) {
		if !slices.Contains(knownUnits, id) {
			errs.AddValidation("units", id, "unknown unit", knownUnitsHint(knownUnits))
			continue
		}
		switch c.Units[id].Mode {
		case "", "eager", "lazy":
		default:
			errs.AddValidation("units", id+".mode", fmt.Sprintf("unknown mode %q", c.Units[id].Mode), "use 'eager' or 'lazy'")
		}
	}

	if c.Remote.BaseURL == "" {
		errs.AddValidation("remote", "baseURL", "is required")
	} else if u, err := url.Parse(c.Remote.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs.AddValidation("remote", "baseURL", fmt.Sprintf("%q is not an absolute URL", c.Remote.BaseURL))
	}
	if c.Remote.Timeout < 0 {
		errs.AddValidation("remote", "timeout", "must not be negative")
	}

	if c.Session.Watch && c.Session.TokenFile == "" {
		errs.AddValidation("session", "tokenFile", "is required when watch is enabled")
	}

	if c.Logging.Level != "" {
		if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
			errs.AddValidation("logging", "level", fmt.Sprintf("unknown level %q", c.Logging.Level), "use debug, info, warn or error")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func knownUnitsHint(known []string) string {
	return "known units: " + strings.Join(known, ", ")
}

func sortedKeys(m map[string]UnitConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
