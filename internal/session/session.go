// Package session runs one profile session: stage the chosen profile into
// the active slot, supervise the game, then reconcile the slot back into
// the crash archive and the saved profile.
package session

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/supervisor"
	"github.com/hpungsan/saveslot/internal/tree"
)

// State is a step of the session lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateProfileChosen   State = "profile_chosen"
	StateNoProfileChosen State = "no_profile_chosen"
	StateStaged          State = "staged"
	StateSkipStaging     State = "skip_staging"
	StateRunning         State = "running"
	StateCompleted       State = "completed"
	StateReconciled      State = "reconciled"
)

// Archiver snapshots the active slot.
type Archiver interface {
	Archive(active, crashRoot string) (string, error)
	Backup(active string) (string, error)
}

// Result describes what one session did.
type Result struct {
	Profile   string `json:"profile,omitempty"`
	NoProfile bool   `json:"no_profile"`

	States []State `json:"states"`

	// BackupPath is the pre-stage copy of the active slot, if one was taken.
	BackupPath string `json:"backup_path,omitempty"`

	// CrashPath is the crash archive entry, if one was written.
	CrashPath string `json:"crash_path,omitempty"`

	Outcome *supervisor.Outcome `json:"outcome,omitempty"`

	SavedBack       bool   `json:"saved_back"`
	SaveBackSkipped string `json:"save_back_skipped,omitempty"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Error is the failure that aborted the session, if any.
	Error error `json:"-"`
}

// Controller runs sessions. It holds no state between runs.
type Controller struct {
	Config     *config.Config
	Copier     tree.Copier
	Supervisor supervisor.Supervisor
	Archiver   Archiver
	Logger     *slog.Logger
	Now        func() time.Time
}

// Run executes one full session for sel.
//
// The returned Result is never nil. On error the session stopped at the
// failing step; steps that already completed are not undone.
func (c *Controller) Run(ctx context.Context, sel Selection) (*Result, error) {
	logger := c.logger().With("profile", sel.String())
	res := &Result{
		Profile:   sel.Profile,
		NoProfile: sel.IsNoProfile(),
		StartedAt: c.now(),
	}
	step := func(s State) {
		res.States = append(res.States, s)
		logger.Debug("session state", "state", string(s))
	}
	fail := func(err error) (*Result, error) {
		res.Error = err
		res.EndedAt = c.now()
		logger.Error("session aborted", "last_state", string(res.States[len(res.States)-1]), "error", err)
		return res, err
	}

	step(StateIdle)

	if err := c.Config.Validate(); err != nil {
		return fail(err)
	}
	if err := validate(c.Config, sel); err != nil {
		return fail(err)
	}

	active := c.Config.ActiveSlotPath()
	profilePath := ""

	if sel.IsNoProfile() {
		step(StateNoProfileChosen)
		step(StateSkipStaging)
		logger.Info("running with the active slot as is", "active_slot", active)
	} else {
		step(StateProfileChosen)
		profilePath = c.Config.ProfilePath(sel.Profile)

		exists, err := dirExists(active)
		if err != nil {
			return fail(err)
		}
		if exists {
			backup, err := c.Archiver.Backup(active)
			if err != nil {
				return fail(err)
			}
			res.BackupPath = backup
			logger.Info("backed up active slot", "active_slot", active, "backup", backup)
		}

		if err := c.Copier.Replace(profilePath, active); err != nil {
			return fail(err)
		}
		step(StateStaged)
		logger.Info("staged profile", "from", profilePath, "to", active)
	}

	step(StateRunning)
	out := c.Supervisor.Run(ctx, c.Config.GameExecutable, c.Config.GameArgs)
	res.Outcome = &out
	step(StateCompleted)
	logger.Info("game finished", "status", out.Status, "reason", out.Reason, "strategy", out.Strategy)

	if !out.IsNormal() {
		exists, err := dirExists(active)
		if err != nil {
			return fail(err)
		}
		if exists {
			crash, err := c.Archiver.Archive(active, c.Config.CrashPath())
			if err != nil {
				return fail(err)
			}
			res.CrashPath = crash
			logger.Info("archived active slot", "active_slot", active, "crash", crash)
		} else {
			logger.Warn("active slot missing after abnormal exit, nothing to archive", "active_slot", active)
		}
	}

	switch {
	case sel.IsNoProfile():
	case out.Interrupted:
		res.SaveBackSkipped = "supervision was interrupted while the game may still be running"
		logger.Warn("save-back skipped", "reason", res.SaveBackSkipped, "profile_path", profilePath)
	default:
		if err := c.Copier.Replace(active, profilePath); err != nil {
			return fail(err)
		}
		res.SavedBack = true
		logger.Info("saved back", "from", active, "to", profilePath)
	}

	step(StateReconciled)
	step(StateIdle)
	res.EndedAt = c.now()
	return res, nil
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewIO("stat", err, path)
	}
	return info.IsDir(), nil
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Controller) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
