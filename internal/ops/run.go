package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/session"
)

// StatusFailed is the journal status of a session aborted by an error.
const StatusFailed = "failed"

// RunInput contains parameters for the Run operation.
// Exactly one of Profile and NoProfile must be set.
type RunInput struct {
	Profile   string
	NoProfile bool
}

// RunOutput contains the result of the Run operation.
type RunOutput struct {
	SessionID string          `json:"session_id"`
	Session   *session.Result `json:"session"`
	Error     string          `json:"error,omitempty"`
}

// Run executes one session through ctrl and journals it.
//
// The selection is validated before anything is written. The journal row is
// inserted before staging; a failure to finish it afterwards is logged and
// does not fail the run.
func Run(ctx context.Context, database *sql.DB, ctrl *session.Controller, input RunInput) (*RunOutput, error) {
	name := strings.TrimSpace(input.Profile)
	if input.NoProfile && name != "" {
		return nil, errors.NewInvalidRequest("choose a profile or no profile, not both")
	}
	if !input.NoProfile && name == "" {
		return nil, errors.NewInvalidRequest("profile is required (or run with no profile)")
	}

	sel := session.NoProfile()
	if !input.NoProfile {
		var err error
		if sel, err = session.Select(ctrl.Config, name); err != nil {
			return nil, err
		}
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	record := &db.Session{
		ID:        id,
		NoProfile: sel.IsNoProfile(),
		Strategy:  ctrl.Config.Supervision,
		Status:    db.StatusRunning,
		StartedAt: now(ctrl).Unix(),
	}
	if !sel.IsNoProfile() {
		record.Profile = &sel.Profile
	}
	if err := db.InsertSession(database, record); err != nil {
		return nil, err
	}

	res, runErr := ctrl.Run(ctx, sel)

	if err := db.FinishSession(database, id, finishFor(res, runErr)); err != nil {
		logger(ctrl).Warn("failed to finish journal entry", "session_id", id, "error", err)
	}

	out := &RunOutput{SessionID: id, Session: res}
	if runErr != nil {
		out.Error = runErr.Error()
		return out, runErr
	}
	return out, nil
}

func finishFor(res *session.Result, runErr error) db.Finish {
	f := db.Finish{
		Status:     StatusFailed,
		BackupPath: optionalString(res.BackupPath),
		CrashPath:  optionalString(res.CrashPath),
		SavedBack:  res.SavedBack,
		EndedAt:    res.EndedAt.Unix(),
	}
	if res.Outcome != nil {
		f.ExitCode = res.Outcome.ExitCode
		f.Reason = optionalString(res.Outcome.Reason)
		if runErr == nil {
			f.Status = res.Outcome.Status
		}
	}
	if runErr != nil {
		msg := runErr.Error()
		f.Error = &msg
	}
	return f
}

func now(ctrl *session.Controller) time.Time {
	if ctrl.Now != nil {
		return ctrl.Now()
	}
	return time.Now()
}

func logger(ctrl *session.Controller) *slog.Logger {
	if ctrl.Logger != nil {
		return ctrl.Logger
	}
	return slog.Default()
}
