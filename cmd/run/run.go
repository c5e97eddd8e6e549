package run

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/gitrevs"
	"github.com/climabench/climabench/pkg/logger"
	"github.com/climabench/climabench/pkg/orchestrator"
)

// RunConfig holds the parameters for a single benchmark run
type RunConfig struct {
	Date       string
	EnvOnly    bool
	ConfigPath string
}

// RunRunner encapsulates the config and logic for running the benchmark command
type RunRunner struct {
	Config RunConfig
	logger *logger.Logger
}

// Validate checks the configuration for required fields
func (r *RunRunner) Validate() error {
	if r.Config.Date == "" {
		return fmt.Errorf("--date is required")
	}
	if _, err := gitrevs.ParseDate(r.Config.Date); err != nil {
		return err
	}
	return nil
}

// Run executes the benchmark pipeline for the requested date
func (r *RunRunner) Run() error {
	if err := r.Validate(); err != nil {
		return err
	}
	cfg, err := config.Load(r.Config.ConfigPath)
	if err != nil {
		return err
	}
	date, err := gitrevs.ParseDate(r.Config.Date)
	if err != nil {
		return err
	}
	orch := orchestrator.New(cfg, r.logger)
	return orch.Run(context.Background(), date, orchestrator.Options{
		EnvOnly: r.Config.EnvOnly,
	})
}

func NewRunCmd(log *logger.Logger) *cobra.Command {
	runner := &RunRunner{logger: log}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark for a given date",
		Long:  `Resolve every tracked repository at the given date, assemble a pinned environment, and run the benchmark in it.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runner.Run(); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&runner.Config.Date, "date", "", "Target date (YYYY-MM-DD, required)")
	cmd.Flags().BoolVar(&runner.Config.EnvOnly, "env-only", false, "Only set up the environment")
	cmd.Flags().StringVar(&runner.Config.ConfigPath, "config", "", "Path to an orchestrator config file")

	return cmd
}
