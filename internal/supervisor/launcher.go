package supervisor

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
)

// maxPollFailures is how many consecutive process table errors are tolerated.
const maxPollFailures = 5

// ProcessLister reports whether any process runs the given executable.
type ProcessLister interface {
	Running(ctx context.Context, exe string) (bool, error)
}

// Launcher supervises a game started through a launcher that hands off to
// another process with the same executable identity.
//
// The real exit code is not observable, so once no matching process remains
// the outcome is always Normal.
type Launcher struct {
	Lister   ProcessLister
	Grace    time.Duration
	Interval time.Duration
	Logger   *slog.Logger

	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the launcher, waits the grace delay, then polls until the game is gone.
func (l *Launcher) Run(ctx context.Context, exe string, args []string) Outcome {
	logger := l.logger()

	cmd := exec.Command(exe, args...)
	cmd.Stdout = writerOr(l.Stdout)
	cmd.Stderr = writerOr(l.Stderr)
	if l.Env != nil {
		cmd.Env = l.Env
	}
	if err := cmd.Start(); err != nil {
		return launchFailed(config.SupervisionLauncher, exe, err, logger)
	}
	logger.Info("launcher started", "executable", exe, "pid", cmd.Process.Pid)

	// The process table reports absolute paths with symlinks resolved
	target := cmd.Path
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	// The launcher's own exit status says nothing about the game.
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("launcher exited", "error", err)
		}
	}()

	if !sleep(ctx, l.Grace) {
		return interrupted(logger)
	}

	failures := 0
	for {
		running, err := l.Lister.Running(ctx, target)
		switch {
		case ctx.Err() != nil:
			return interrupted(logger)
		case err != nil:
			failures++
			logger.Warn("process poll failed", "attempt", failures, "error", err)
			if failures >= maxPollFailures {
				return Outcome{
					Status:   Abnormal,
					Reason:   "process poll failed",
					Strategy: config.SupervisionLauncher,
					Err:      errors.NewInternal(err),
				}
			}
		case !running:
			logger.Info("game process no longer running", "executable", target)
			return Outcome{Status: Normal, Strategy: config.SupervisionLauncher}
		default:
			failures = 0
		}

		if !sleep(ctx, l.Interval) {
			return interrupted(logger)
		}
	}
}

func interrupted(logger *slog.Logger) Outcome {
	logger.Warn("supervision interrupted before the game exited")
	return Outcome{
		Status:      Abnormal,
		Reason:      "supervision interrupted",
		Strategy:    config.SupervisionLauncher,
		Interrupted: true,
	}
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
