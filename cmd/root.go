package cmd

import (
	"github.com/spf13/cobra"

	"github.com/climabench/climabench/cmd/resolve"
	"github.com/climabench/climabench/cmd/run"
	"github.com/climabench/climabench/cmd/schedule"
	"github.com/climabench/climabench/cmd/version"
	"github.com/climabench/climabench/pkg/logger"
)

// NewRootCmd builds the base command when called without any subcommands
func NewRootCmd() *cobra.Command {
	log := logger.NewDefault()
	rootCmd := &cobra.Command{
		Use:   "climabench",
		Short: "A reproducible climate-model benchmark orchestrator",
		Long:  `climabench resolves the state of the CliMA repositories at a past date, assembles a pinned environment, and runs the performance benchmark in it.`,
	}

	rootCmd.AddCommand(run.NewRunCmd(log))
	rootCmd.AddCommand(resolve.NewResolveCmd(log))
	rootCmd.AddCommand(schedule.NewScheduleCmd(log))
	rootCmd.AddCommand(version.NewVersionCmd())
	return rootCmd
}
