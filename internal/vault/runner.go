package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/vaultsync/vaultsync/internal/utils"
)

// Runner executes the invocations of a Plan one after the other.
type Runner struct {
	env    map[string]string
	stdout io.Writer
	logger *slog.Logger
}

// NewRunner returns a Runner whose child processes see exactly env.
func NewRunner(env map[string]string) *Runner {
	envCopy := make(map[string]string, len(env))
	for k, v := range env {
		envCopy[k] = v
	}
	return &Runner{
		env:    envCopy,
		stdout: io.Discard,
		logger: slog.Default(),
	}
}

// SetStdout mirrors the tool's standard output to w.
func (r *Runner) SetStdout(w io.Writer) *Runner {
	if w != nil {
		r.stdout = w
	}
	return r
}

// SetLogger replaces the logger used for tool output and progress.
func (r *Runner) SetLogger(logger *slog.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Run executes the plan's invocations in order. A failed pass stops the run
// and is returned as a *ToolError; later passes never start.
func (r *Runner) Run(ctx context.Context, plan *Plan) error {
	for i, inv := range plan.Invocations {
		if err := r.exec(ctx, i+1, inv); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, pass int, inv Invocation) error {
	logger := r.logger.With("pass", pass, "src", inv.Source, "dst", inv.Destination)

	stdoutLines := utils.NewLineWriter(func(line string) {
		logger.Info("tool output", "line", line)
	})
	stderrLines := utils.NewLineWriter(func(line string) {
		logger.Warn("tool error output", "line", line)
	})
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Env = utils.EnvList(r.env)
	cmd.Stdin = nil
	cmd.Stdout = io.MultiWriter(r.stdout, stdoutLines)
	cmd.Stderr = io.MultiWriter(&stderr, stderrLines)

	logger.Info("sync pass start", "cmd", inv.String())
	start := time.Now()
	err := cmd.Run()
	stdoutLines.Close()
	stderrLines.Close()

	if err != nil {
		toolErr := &ToolError{
			Pass:       pass,
			Invocation: inv,
			Stderr:     stderr.String(),
			Err:        err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		logger.Error("sync pass failed", "exitCode", toolErr.ExitCode, "error", err)
		return toolErr
	}

	logger.Info("sync pass done", "took", time.Since(start))
	return nil
}
