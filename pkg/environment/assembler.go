package environment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/climabench/climabench/pkg/config"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/gitrevs"
	"github.com/climabench/climabench/pkg/logger"
)

// Assembler builds the pinned project environment inside a run directory:
// a copy of the coordinator repository at its resolved commit, with every
// other tracked repository added to the package environment by URL and
// revision.
type Assembler struct {
	cfg   *config.Config
	julia *Julia
	log   *logger.Logger
}

func NewAssembler(cfg *config.Config, julia *Julia, log *logger.Logger) *Assembler {
	return &Assembler{cfg: cfg, julia: julia, log: log}
}

// Assemble materializes the environment for the target date and returns the
// project environment directory. Any step failing aborts the assembly; there
// is no partial-state recovery.
func (a *Assembler) Assemble(ctx context.Context, date time.Time, revs *gitrevs.RevisionSet) (string, error) {
	coordRev, ok := revs.Lookup(a.cfg.Coordinator)
	if !ok {
		return "", apperrors.NewResolutionError(
			fmt.Sprintf("no revision resolved for coordinator %s", a.cfg.Coordinator), nil)
	}

	runDir := a.cfg.RunDir(date)
	coordDir := a.cfg.CoordinatorCopy(date)
	a.log.Info("copying coordinator", "repo", a.cfg.Coordinator, "rev", coordRev.Hash)
	if err := ExportTree(a.cfg.RepoPath(a.cfg.Coordinator), coordRev.Hash, coordDir); err != nil {
		return "", err
	}

	envDir := filepath.Join(coordDir, a.cfg.EnvSubdir)
	a.log.Info("instantiating environment", "env", envDir)
	if err := a.julia.Eval(ctx, envDir, "using Pkg; Pkg.instantiate();"); err != nil {
		return "", err
	}

	for _, name := range a.cfg.Repos {
		if name == a.cfg.Coordinator {
			continue
		}
		rev, ok := revs.Lookup(name)
		if !ok {
			return "", apperrors.NewResolutionError(
				fmt.Sprintf("no revision resolved for repository %s", name),
				map[string]interface{}{"repo": name})
		}
		a.log.Info("pinning package", "repo", name, "rev", rev.Hash)
		code := fmt.Sprintf(`using Pkg; Pkg.add(Pkg.PackageSpec(;url=%q, rev=%q))`,
			a.cfg.UpstreamURL(name), rev.Hash)
		if err := a.julia.Eval(ctx, envDir, code); err != nil {
			return "", err
		}
	}

	a.log.Info("resolving environment")
	if err := a.julia.Eval(ctx, envDir, "using Pkg; Pkg.resolve();"); err != nil {
		return "", err
	}
	for _, name := range a.cfg.ExtraPackages {
		a.log.Info("adding package", "package", name)
		if err := a.julia.Eval(ctx, envDir, fmt.Sprintf(`using Pkg; Pkg.add(%q);`, name)); err != nil {
			return "", err
		}
	}
	a.log.Info("precompiling packages")
	if err := a.julia.Eval(ctx, envDir, "using Pkg; Pkg.precompile();"); err != nil {
		return "", err
	}
	if err := a.julia.Eval(ctx, envDir, "using Pkg; Pkg.status();"); err != nil {
		return "", err
	}

	// Keep the resolved manifest next to the provenance record.
	manifestSrc := filepath.Join(envDir, a.cfg.Manifest)
	manifestDest := filepath.Join(runDir, a.cfg.Manifest)
	if err := copyFile(manifestSrc, manifestDest); err != nil {
		return "", apperrors.NewInternalError(
			fmt.Sprintf("failed to record manifest %s", a.cfg.Manifest), err, nil)
	}
	return envDir, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
