package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"

	"stagehand/internal/boundary"
	"stagehand/internal/config"
)

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if GetVersion() != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "stagehand" {
		t.Errorf("Expected Use to be 'stagehand', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	expected := "stagehand version 1.0.0\n"
	if buf.String() != expected {
		t.Errorf("Expected version output %q, got %q", expected, buf.String())
	}
}

func TestSubcommands(t *testing.T) {
	foundCommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range []string{"version", "serve", "check"} {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestServeFlags(t *testing.T) {
	for _, name := range []string{"no-prompt", "debug", "config-path"} {
		if serveCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected serve flag --%s to be registered", name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	configErrs := config.NewConfigurationErrorCollection()
	configErrs.AddValidation("startup", "orderPolicy", "unknown order policy")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"invalid config", fmt.Errorf("invalid configuration: %w", configErrs), ExitCodeInvalidConfig},
		{"startup failed", boundary.ErrStartupFailed, ExitCodeStartupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
