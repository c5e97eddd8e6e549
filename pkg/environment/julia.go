package environment

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

// Julia invokes the julia binary against a project environment. Every call
// blocks until the subprocess exits; a non-zero exit is an error.
type Julia struct {
	bin    string
	log    *logger.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewJulia creates a runner for the given julia executable. Subprocess output
// is passed through to the orchestrator's stdout and stderr.
func NewJulia(bin string, log *logger.Logger) *Julia {
	return &Julia{
		bin:    bin,
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Eval runs an inline code snippet in the project environment at envDir.
func (j *Julia) Eval(ctx context.Context, envDir, code string) error {
	return j.run(ctx, envDir, "-e", code)
}

// RunScript runs a script file in the project environment at envDir.
func (j *Julia) RunScript(ctx context.Context, envDir, script string, args ...string) error {
	return j.run(ctx, envDir, append([]string{script}, args...)...)
}

func (j *Julia) run(ctx context.Context, envDir string, args ...string) error {
	argv := append([]string{"--project=" + envDir}, args...)
	j.log.Debug("running julia", "args", argv)
	cmd := exec.CommandContext(ctx, j.bin, argv...)
	cmd.Stdout = j.stdout
	cmd.Stderr = j.stderr
	if err := cmd.Run(); err != nil {
		return apperrors.NewSubprocessError(
			fmt.Sprintf("julia exited with an error for project %s", envDir), err,
			map[string]interface{}{"args": argv})
	}
	return nil
}
