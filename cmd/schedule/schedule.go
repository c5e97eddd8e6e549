package schedule

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/logger"
	"github.com/climabench/climabench/pkg/orchestrator"
)

// ScheduleConfig holds the parameters for the nightly scheduler
type ScheduleConfig struct {
	Cron       string
	EnvOnly    bool
	ConfigPath string
}

// ScheduleRunner runs the full benchmark pipeline on a cron schedule,
// targeting the previous calendar day on every tick.
type ScheduleRunner struct {
	Config ScheduleConfig
	logger *logger.Logger
}

// Validate checks the configuration for required fields
func (r *ScheduleRunner) Validate() error {
	if r.Config.Cron == "" {
		return fmt.Errorf("--cron is required")
	}
	return nil
}

// Run blocks forever, running the benchmark once per cron tick
func (r *ScheduleRunner) Run() error {
	if err := r.Validate(); err != nil {
		return err
	}
	cfg, err := config.Load(r.Config.ConfigPath)
	if err != nil {
		return err
	}
	orch := orchestrator.New(cfg, r.logger)

	c := cron.New()
	_, err = c.AddFunc(r.Config.Cron, func() {
		date := time.Now().AddDate(0, 0, -1)
		r.logger.Info("scheduled benchmark starting", "date", date.Format("2006-01-02"))
		err := orch.Run(context.Background(), date, orchestrator.Options{
			EnvOnly: r.Config.EnvOnly,
		})
		if err != nil {
			r.logger.Error("scheduled benchmark failed", "date", date.Format("2006-01-02"), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", r.Config.Cron, err)
	}
	r.logger.Info("scheduler started", "cron", r.Config.Cron)
	c.Run()
	return nil
}

func NewScheduleCmd(log *logger.Logger) *cobra.Command {
	runner := &ScheduleRunner{logger: log}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the benchmark nightly on a cron schedule",
		Long:  `Stay in the foreground and run the full benchmark pipeline for the previous day on every cron tick.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runner.Run(); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&runner.Config.Cron, "cron", "0 3 * * *", "Cron schedule for the nightly run")
	cmd.Flags().BoolVar(&runner.Config.EnvOnly, "env-only", false, "Only set up the environment on each tick")
	cmd.Flags().StringVar(&runner.Config.ConfigPath, "config", "", "Path to an orchestrator config file")

	return cmd
}
