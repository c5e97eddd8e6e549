package benchmark

import (
	"context"
	"path/filepath"
	"time"

	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/environment"
	"github.com/climabench/climabench/pkg/logger"
)

// Launcher starts the simulation inside an assembled environment and blocks
// until it finishes. A non-zero exit aborts the run; there is no retry.
type Launcher struct {
	cfg   *config.Config
	julia *environment.Julia
	log   *logger.Logger
}

func NewLauncher(cfg *config.Config, julia *environment.Julia, log *logger.Logger) *Launcher {
	return &Launcher{cfg: cfg, julia: julia, log: log}
}

// Launch runs the simulation entry point with the benchmark config and job
// identifier.
func (l *Launcher) Launch(ctx context.Context, date time.Time, envDir string) error {
	coordDir := l.cfg.CoordinatorCopy(date)
	script := filepath.Join(coordDir, l.cfg.Entrypoint)
	configFile := filepath.Join(coordDir, filepath.FromSlash(l.cfg.BenchmarkConfig))
	l.log.Info("starting benchmark", "script", script, "job_id", l.cfg.JobID)
	return l.julia.RunScript(ctx, envDir, script,
		"--config_file", configFile,
		"--job_id", l.cfg.JobID,
	)
}
