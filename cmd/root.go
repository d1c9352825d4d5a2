package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"stagehand/internal/boundary"
	"stagehand/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeInvalidConfig indicates the configuration failed validation.
	ExitCodeInvalidConfig = 2
	// ExitCodeStartupFailed indicates an eager unit failed and no prompt was available.
	ExitCodeStartupFailed = 3
)

// rootCmd represents the base command for the stagehand application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Start application units in dependency order",
	Long: `stagehand initializes the units of an application in dependency order.

Eager units are started at launch following a validated hint order; lazy
units start the first time they are needed. When an eager unit fails,
stagehand names the failed subsystem and offers to retry or reload.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var configErrs *config.ConfigurationErrorCollection
	if errors.As(err, &configErrs) {
		return ExitCodeInvalidConfig
	}

	if errors.Is(err, boundary.ErrStartupFailed) {
		return ExitCodeStartupFailed
	}

	// Default to general error
	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
