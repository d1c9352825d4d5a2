package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stagehand/internal/app"
)

// serveNoPrompt disables the interactive error boundary.
// Useful for systemd services and CI where no terminal is attached.
var serveNoPrompt bool

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath specifies a custom configuration directory path.
// The directory should contain config.yaml.
var serveConfigPath string

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start every eager unit and keep them running until interrupted.",
	Long: `Starts the eager units in dependency order and keeps them running until
stagehand receives SIGINT or SIGTERM.

While startup runs a loading indicator is shown. If an eager unit fails,
the failed subsystem is named together with its error and you can choose to:

  r / retry   re-run every failed unit and resume startup
  l / reload  restart the stagehand process
  q / quit    shut down

With --no-prompt the failure is printed and stagehand exits with a non-zero
status instead. Under systemd a readiness notification (READY=1) is sent once
every eager unit is ready.

Configuration:
  stagehand loads config.yaml from ~/.config/stagehand by default.
  Use --config-path to load it from another directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveNoPrompt, serveConfigPath)
	cfg.Out = cmd.OutOrStdout()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoPrompt, "no-prompt", false, "Disable the interactive prompt and exit when startup fails")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable general debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
}
