package app

import (
	"io"

	"stagehand/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// NoPrompt disables the interactive boundary prompt and the loading
	// indicator. A failed startup then ends the process with an error.
	NoPrompt bool

	// Custom configuration path (optional)
	// When empty, ~/.config/stagehand is used
	ConfigPath string

	// Out receives logs and the boundary output. Defaults to os.Stdout.
	Out io.Writer

	// Loaded configuration
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug, noPrompt bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		NoPrompt:   noPrompt,
		ConfigPath: configPath,
	}
}
