package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stagehand/internal/api"
	"stagehand/internal/catalog"
	"stagehand/internal/config"
	"stagehand/internal/orchestrator"
	"stagehand/pkg/logging"
)

var (
	checkOutputFormat string
	checkConfigPath   string
)

// planStep is one entry of the effective startup plan.
type planStep struct {
	Position  int      `yaml:"position"`
	Unit      string   `yaml:"unit"`
	DependsOn []string `yaml:"dependsOn,omitempty"`
}

// planReport is what check prints.
type planReport struct {
	OrderPolicy string     `yaml:"orderPolicy"`
	Parallel    bool       `yaml:"parallel"`
	Steps       []planStep `yaml:"steps"`
	Lazy        []string   `yaml:"lazy,omitempty"`
}

// checkCmd validates the configuration and prints the startup plan.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the startup plan",
	Long: `Validates config.yaml against the known units and prints the order in
which a startup run would initialize the eager units.

A hint order that places a unit before one of its dependencies is reported
as an error under the strict order policy and shown repaired under the
reorder policy.

Examples:
  stagehand check
  stagehand check --config-path ./deploy -o yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "table", "Output format (table, yaml)")
	checkCmd.Flags().StringVar(&checkConfigPath, "config-path", "", "Custom configuration directory path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())

	configPath := checkConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	settings, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from path %s: %w", configPath, err)
	}
	if err := settings.Validate(catalog.Names()); err != nil {
		var collection *config.ConfigurationErrorCollection
		if errors.As(err, &collection) {
			fmt.Fprint(cmd.ErrOrStderr(), collection.GetDetailedReport())
		}
		return err
	}

	report, err := buildPlanReport(settings)
	if err != nil {
		return err
	}

	switch strings.ToLower(checkOutputFormat) {
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	case "table", "":
		renderPlanTable(cmd.OutOrStdout(), report)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", checkOutputFormat)
	}
}

// buildPlanReport computes the plan a startup run would follow, without
// starting anything.
func buildPlanReport(settings config.Config) (planReport, error) {
	registry, err := catalog.NewRegistry(settings)
	if err != nil {
		return planReport{}, err
	}
	orch := orchestrator.New(registry, orchestrator.Config{
		Parallel:    settings.Startup.Parallel,
		OrderPolicy: orchestrator.OrderPolicy(settings.Startup.OrderPolicy),
	})

	order, err := orch.Plan()
	if err != nil {
		return planReport{}, err
	}

	report := planReport{
		OrderPolicy: settings.Startup.OrderPolicy,
		Parallel:    settings.Startup.Parallel,
	}
	if report.OrderPolicy == "" {
		report.OrderPolicy = string(orchestrator.OrderStrict)
	}
	for i, id := range order {
		def, _ := registry.Get(id)
		report.Steps = append(report.Steps, planStep{
			Position:  i + 1,
			Unit:      string(id),
			DependsOn: idStrings(def.Dependencies),
		})
	}
	for _, id := range registry.List() {
		if def, _ := registry.Get(id); def.Mode == api.ModeLazy {
			report.Lazy = append(report.Lazy, string(id))
		}
	}
	return report, nil
}

func renderPlanTable(out io.Writer, report planReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "UNIT", "DEPENDS ON"})
	for _, step := range report.Steps {
		t.AppendRow(table.Row{step.Position, step.Unit, strings.Join(step.DependsOn, ", ")})
	}
	t.Render()

	fmt.Fprintf(out, "Order policy: %s, parallel: %t\n", report.OrderPolicy, report.Parallel)
	if len(report.Lazy) > 0 {
		fmt.Fprintf(out, "Lazy units: %s\n", strings.Join(report.Lazy, ", "))
	}
}

func idStrings(ids []api.UnitID) []string {
	if len(ids) == 0 {
		return nil
	}
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = string(id)
	}
	return res
}
