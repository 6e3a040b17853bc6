package document

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/exam-grader/internal/common"
)

// Runner executes an external tool. Tests substitute one that writes the
// files the real tool would have produced.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

const (
	stderrLogLimit = 8 << 10
	// a rasterizer ignoring SIGKILL still gets its pipes closed after this
	waitDelay = 5 * time.Second
)

// cmdRunner runs tools through os/exec with one log record per invocation.
type cmdRunner struct {
	logger *slog.Logger
}

func (r cmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	log := r.logger.With(
		"tool", filepath.Base(name),
		"argc", len(args),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		log.Debug("document.exec.ok", "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())
	case ctx.Err() != nil:
		log.Warn("document.exec.canceled", "error", ctx.Err())
	case errors.As(err, &exitErr):
		log.Error("document.exec.exit",
			"exit_code", exitErr.ExitCode(),
			"stderr", common.Truncate(stderr.String(), stderrLogLimit),
		)
	default:
		// not started: missing binary or bad permissions
		log.Error("document.exec.start_failed", "path", name, "error", err)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
