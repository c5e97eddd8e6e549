package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/climabench/climabench/pkg/benchmark"
	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/configs"
	"github.com/climabench/climabench/pkg/environment"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/gitrevs"
	"github.com/climabench/climabench/pkg/logger"
)

// RevisionRecord is the provenance file written into every run directory.
const RevisionRecord = "repo-revs.json"

// Options control a single orchestrator invocation.
type Options struct {
	// EnvOnly stops after environment assembly and provenance records.
	EnvOnly bool
}

// Orchestrator runs the benchmark pipeline for one target date:
// resolve commits, assemble the environment, install configs, launch the
// simulation, collect artifacts. Stages run strictly in order and any fatal
// error requires rerunning from the start.
type Orchestrator struct {
	cfg   *config.Config
	julia *environment.Julia
	log   *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		julia: environment.NewJulia(cfg.JuliaBin, log),
		log:   log,
	}
}

// Run executes the pipeline for the target date. The date must be strictly
// in the past; nothing is touched on disk before that check passes.
func (o *Orchestrator) Run(ctx context.Context, date time.Time, opts Options) error {
	if err := gitrevs.ValidateTarget(date, time.Now()); err != nil {
		return err
	}

	day := date.Format("2006-01-02")
	o.log.Info("running benchmark", "date", day)
	revs, err := gitrevs.ResolveAll(ctx, o.cfg, date, o.log)
	if err != nil {
		return err
	}
	o.log.Info("repository revisions resolved", "date", day)
	for repo, rev := range revs.Changed {
		o.log.Info("resolved revision", "repo", repo, "rev", rev.Hash, "state", "changed")
	}
	for repo, rev := range revs.Unchanged {
		o.log.Info("resolved revision", "repo", repo, "rev", rev.Hash, "state", "unchanged")
	}

	runDir := o.cfg.RunDir(date)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to create run directory %s", runDir), err, nil)
	}

	assembler := environment.NewAssembler(o.cfg, o.julia, o.log)
	envDir, err := assembler.Assemble(ctx, date, revs)
	if err != nil {
		return err
	}
	if err := revs.WriteJSON(filepath.Join(runDir, RevisionRecord)); err != nil {
		return err
	}
	o.log.Info("environment setup complete", "env", envDir)
	if opts.EnvOnly {
		return nil
	}

	installer := configs.NewInstaller(o.cfg, o.log)
	if err := installer.Install(date); err != nil {
		return err
	}

	launcher := benchmark.NewLauncher(o.cfg, o.julia, o.log)
	if err := launcher.Launch(ctx, date, envDir); err != nil {
		return err
	}

	collector := benchmark.NewCollector(o.cfg, o.log)
	if err := collector.Collect(date); err != nil {
		return err
	}
	o.log.Info("benchmark complete", "date", day)
	return nil
}
