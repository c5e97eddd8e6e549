package configs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/climabench/climabench/pkg/config"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

// Installer copies the benchmark's configuration and parameter files from the
// coordinator's working clone at HEAD into the pinned coordinator copy. The
// configs deliberately track HEAD rather than the historical commit, so the
// current benchmark definition is applied to every date.
type Installer struct {
	cfg *config.Config
	log *logger.Logger
}

func NewInstaller(cfg *config.Config, log *logger.Logger) *Installer {
	return &Installer{cfg: cfg, log: log}
}

// Install copies every configured file, preserving its path relative to the
// repository root and overwriting whatever the pinned copy contains. File
// contents are not validated.
func (i *Installer) Install(date time.Time) error {
	srcRoot := i.cfg.RepoPath(i.cfg.Coordinator)
	destRoot := i.cfg.CoordinatorCopy(date)
	for _, rel := range i.cfg.ConfigFiles {
		src := filepath.Join(srcRoot, filepath.FromSlash(rel))
		dest := filepath.Join(destRoot, filepath.FromSlash(rel))
		i.log.Info("installing config", "file", rel)
		if err := copyFile(src, dest); err != nil {
			return apperrors.NewInternalError(
				fmt.Sprintf("failed to install config %s", rel), err,
				map[string]interface{}{"file": rel})
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
