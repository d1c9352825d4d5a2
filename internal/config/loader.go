package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stagehand/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/stagehand"
	configFileName = "config.yaml"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory.
// The directory should contain config.yaml; a missing file yields the
// defaults. Relative paths inside the file are resolved against configPath.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig() // Start with default config

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			config.resolvePaths(configPath)
			return config, nil
		}
		logging.Info("Config", "Error loading config.yaml from %s: %s", configFilePath, err)
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		// config malformed
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	config.resolvePaths(configPath)
	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func (c *Config) resolvePaths(configPath string) {
	if c.Session.TokenFile != "" && !filepath.IsAbs(c.Session.TokenFile) {
		c.Session.TokenFile = filepath.Join(configPath, c.Session.TokenFile)
	}
}
