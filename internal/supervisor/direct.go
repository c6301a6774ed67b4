package supervisor

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
)

// Direct supervises a game that is itself the spawned process.
type Direct struct {
	NormalExitCode int
	Logger         *slog.Logger

	// Env, when set, replaces the inherited environment of the game.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts exe and waits for it to exit.
//
// Cancelling ctx does not stop the game: the session is only safe to
// reconcile after the game has released the active slot, so Run keeps waiting.
func (d *Direct) Run(ctx context.Context, exe string, args []string) Outcome {
	logger := d.logger()

	cmd := exec.Command(exe, args...)
	cmd.Stdout = writerOr(d.Stdout)
	cmd.Stderr = writerOr(d.Stderr)
	if d.Env != nil {
		cmd.Env = d.Env
	}

	if err := cmd.Start(); err != nil {
		return launchFailed(config.SupervisionDirect, exe, err, logger)
	}
	logger.Info("game started", "strategy", config.SupervisionDirect, "executable", exe, "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		logger.Warn("interrupt received, waiting for the game to exit", "pid", cmd.Process.Pid)
		waitErr = <-done
	}

	return d.classify(waitErr, logger)
}

func (d *Direct) classify(waitErr error, logger *slog.Logger) Outcome {
	out := Outcome{Strategy: config.SupervisionDirect}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		code := 0
		out.ExitCode = &code
	case stderrors.As(waitErr, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal; no exit code.
			out.Status = Abnormal
			out.Reason = exitErr.ProcessState.String()
			logger.Warn("game terminated", "reason", out.Reason)
			return out
		}
		out.ExitCode = &code
	default:
		out.Status = Abnormal
		out.Reason = fmt.Sprintf("wait failed: %v", waitErr)
		out.Err = errors.NewInternal(waitErr)
		logger.Error("waiting for game failed", "error", waitErr)
		return out
	}

	if *out.ExitCode == d.NormalExitCode {
		out.Status = Normal
	} else {
		out.Status = Abnormal
		out.Reason = fmt.Sprintf("exit code %d", *out.ExitCode)
	}
	logger.Info("game exited", "status", out.Status, "exit_code", *out.ExitCode)
	return out
}

func (d *Direct) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
