// Package supervisor starts the game and blocks until it has fully exited.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
)

// Outcome statuses.
const (
	Normal   = "normal"
	Abnormal = "abnormal"
)

// Outcome classifies how a supervised run ended.
type Outcome struct {
	Status string `json:"status"`

	// ExitCode is the game's own exit code; nil when none was observed
	// (launch failure, signal, launcher supervision).
	ExitCode *int `json:"exit_code,omitempty"`

	Reason   string `json:"reason,omitempty"`
	Strategy string `json:"strategy"`

	// Interrupted is set when supervision stopped before the game was seen to exit.
	Interrupted bool `json:"interrupted,omitempty"`

	Err error `json:"-"`
}

// IsNormal reports whether the run ended cleanly.
func (o Outcome) IsNormal() bool {
	return o.Status == Normal
}

// Supervisor runs the game executable to completion.
// Failures are reported inside the Outcome, never as an error.
type Supervisor interface {
	Run(ctx context.Context, exe string, args []string) Outcome
}

// New returns the supervisor selected by cfg.Supervision. Game output goes
// to stderr; stdout carries saveslot's own results.
func New(cfg *config.Config, logger *slog.Logger) Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Supervision == config.SupervisionLauncher {
		return &Launcher{
			Lister:   NewProcessLister(),
			Grace:    cfg.LaunchGrace(),
			Interval: cfg.PollInterval(),
			Logger:   logger,
			Stdout:   os.Stderr,
			Stderr:   os.Stderr,
		}
	}
	return &Direct{
		NormalExitCode: cfg.ExitCode(),
		Logger:         logger,
		Stdout:         os.Stderr,
		Stderr:         os.Stderr,
	}
}

func launchFailed(strategy, exe string, err error, logger *slog.Logger) Outcome {
	logger.Error("game launch failed", "strategy", strategy, "executable", exe, "error", err)
	return Outcome{
		Status:   Abnormal,
		Reason:   fmt.Sprintf("launch failed: %v", err),
		Strategy: strategy,
		Err:      errors.NewLaunchFailed(exe, err),
	}
}

// sleep waits for d or until ctx is done. It reports whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
