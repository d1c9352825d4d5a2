package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"stagehand/internal/api"
	"stagehand/internal/config"
)

func runCheckWith(t *testing.T, configYAML string, format string) (string, string, error) {
	t.Helper()

	dir := t.TempDir()
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0600))
	}

	checkConfigPath = dir
	checkOutputFormat = format
	t.Cleanup(func() {
		checkConfigPath = ""
		checkOutputFormat = "table"
	})

	var stdout, stderr bytes.Buffer
	checkCmd.SetOut(&stdout)
	checkCmd.SetErr(&stderr)
	err := runCheck(checkCmd, nil)
	return stdout.String(), stderr.String(), err
}

func TestCheckDefaultPlan(t *testing.T) {
	out, _, err := runCheckWith(t, "", "table")
	require.NoError(t, err)

	for _, s := range []string{"UNIT", "remote", "devices", "alarms", "endpoints", "Order policy: strict", "Lazy units: session, files"} {
		assert.Contains(t, out, s)
	}
	assert.Less(t, strings.Index(out, "remote"), strings.Index(out, "devices"))
}

func TestCheckYAML(t *testing.T) {
	out, _, err := runCheckWith(t, "units:\n  endpoints:\n    mode: lazy\n", "yaml")
	require.NoError(t, err)

	var report planReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))

	var units []string
	for _, step := range report.Steps {
		units = append(units, step.Unit)
	}
	assert.Equal(t, []string{"remote", "devices", "alarms"}, units)
	assert.Equal(t, []string{"session", "endpoints", "files"}, report.Lazy)
	assert.Equal(t, []string{"remote", "devices"}, report.Steps[2].DependsOn)
}

func TestCheckHintOrderPolicies(t *testing.T) {
	hint := "startup:\n  hintOrder: [devices, remote, alarms, endpoints]\n"

	_, _, err := runCheckWith(t, hint, "table")
	var herr *api.HintOrderError
	require.ErrorAs(t, err, &herr)
	assert.NotEmpty(t, herr.Violations)

	out, _, err := runCheckWith(t, hint+"  orderPolicy: reorder\n", "yaml")
	require.NoError(t, err)

	var report planReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "reorder", report.OrderPolicy)
	assert.Equal(t, "remote", report.Steps[0].Unit)
	assert.Equal(t, "devices", report.Steps[1].Unit)
}

func TestCheckInvalidConfig(t *testing.T) {
	_, stderr, err := runCheckWith(t, "startup:\n  orderPolicy: random\nunits:\n  printer:\n    mode: lazy\n", "table")

	var collection *config.ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Equal(t, 2, collection.Count())
	assert.Contains(t, stderr, "orderPolicy")
}

func TestCheckUnsupportedFormat(t *testing.T) {
	_, _, err := runCheckWith(t, "", "json")
	assert.ErrorContains(t, err, "unsupported output format")
}
