package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/gitrevs"
	"github.com/climabench/climabench/pkg/logger"
)

// ResolveConfig holds the parameters for the resolve command
type ResolveConfig struct {
	Date       string
	ConfigPath string
}

// ResolveRunner resolves and prints repository revisions without building
// anything
type ResolveRunner struct {
	Config ResolveConfig
	logger *logger.Logger
}

// Validate checks the configuration for required fields
func (r *ResolveRunner) Validate() error {
	if r.Config.Date == "" {
		return fmt.Errorf("--date is required")
	}
	if _, err := gitrevs.ParseDate(r.Config.Date); err != nil {
		return err
	}
	return nil
}

// Run prints the resolved revision set for the date as JSON
func (r *ResolveRunner) Run() error {
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
	if err := gitrevs.ValidateTarget(date, time.Now()); err != nil {
		return err
	}
	revs, err := gitrevs.ResolveAll(context.Background(), cfg, date, r.logger)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(revs, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func NewResolveCmd(log *logger.Logger) *cobra.Command {
	runner := &ResolveRunner{logger: log}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the repository revisions for a given date",
		Long:  `Resolve the commit of every tracked repository at the given date and print the revision set as JSON.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runner.Run(); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&runner.Config.Date, "date", "", "Target date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&runner.Config.ConfigPath, "config", "", "Path to an orchestrator config file")

	return cmd
}
