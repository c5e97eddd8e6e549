package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/climabench/climabench/pkg/config"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

// Collector relocates the simulation's output into the run directory after a
// successful run and removes the temporary coordinator copy to reclaim space.
type Collector struct {
	cfg *config.Config
	log *logger.Logger
}

func NewCollector(cfg *config.Config, log *logger.Logger) *Collector {
	return &Collector{cfg: cfg, log: log}
}

// candidates lists the fixed set of locations the simulation is known to
// write its job output to, depending on its version.
func (c *Collector) candidates(date time.Time) []string {
	envDir := filepath.Join(c.cfg.CoordinatorCopy(date), c.cfg.EnvSubdir)
	return []string{
		filepath.Join(envDir, "output", c.cfg.JobID),
		filepath.Join("output", c.cfg.JobID),
	}
}

// Collect moves the job output to <run-dir>/artifacts and deletes the
// coordinator copy. When zero or multiple candidate locations exist the
// ambiguity is logged as a warning and the run directory is left untouched.
func (c *Collector) Collect(date time.Time) error {
	var found []string
	for _, candidate := range c.candidates(date) {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			found = append(found, candidate)
		}
	}
	switch len(found) {
	case 1:
	case 0:
		c.log.Warn("no benchmark output found", "job_id", c.cfg.JobID)
		return nil
	default:
		c.log.Warn("multiple benchmark output locations found, leaving run as-is",
			"job_id", c.cfg.JobID, "locations", found)
		return nil
	}

	dest := filepath.Join(c.cfg.RunDir(date), "artifacts")
	c.log.Info("collecting artifacts", "from", found[0], "to", dest)
	if err := os.Rename(found[0], dest); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to move artifacts to %s", dest), err, nil)
	}
	coordDir := c.cfg.CoordinatorCopy(date)
	c.log.Info("removing coordinator copy", "dir", coordDir)
	if err := os.RemoveAll(coordDir); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to remove coordinator copy %s", coordDir), err, nil)
	}
	return nil
}
