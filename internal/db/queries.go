package db

import (
	"database/sql"

	"github.com/hpungsan/saveslot/internal/errors"
)

// StatusRunning marks a session whose game has not been seen to exit yet.
// A journal row left in this state means saveslot itself was killed mid-session.
const StatusRunning = "running"

// Session is one journal row.
type Session struct {
	ID         string  `json:"id"`
	Profile    *string `json:"profile,omitempty"`
	NoProfile  bool    `json:"no_profile"`
	Strategy   string  `json:"strategy"`
	Status     string  `json:"status"`
	ExitCode   *int    `json:"exit_code,omitempty"`
	Reason     *string `json:"reason,omitempty"`
	BackupPath *string `json:"backup_path,omitempty"`
	CrashPath  *string `json:"crash_path,omitempty"`
	SavedBack  bool    `json:"saved_back"`
	Error      *string `json:"error,omitempty"`
	StartedAt  int64   `json:"started_at"`
	EndedAt    *int64  `json:"ended_at,omitempty"`
}

// Finish holds the fields written when a session ends.
type Finish struct {
	Status     string
	ExitCode   *int
	Reason     *string
	BackupPath *string
	CrashPath  *string
	SavedBack  bool
	Error      *string
	EndedAt    int64
}

const sessionColumns = `
	id, profile, no_profile, strategy, status, exit_code, reason,
	backup_path, crash_path, saved_back, error, started_at, ended_at`

// InsertSession records the start of a session.
func InsertSession(db *sql.DB, s *Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		s.ID, toNullString(s.Profile), s.NoProfile, s.Strategy, s.Status,
		toNullInt(s.ExitCode), toNullString(s.Reason),
		toNullString(s.BackupPath), toNullString(s.CrashPath),
		s.SavedBack, toNullString(s.Error), s.StartedAt, toNullInt64(s.EndedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// FinishSession writes the end state of the session with the given id.
func FinishSession(db *sql.DB, id string, f Finish) error {
	query := `
		UPDATE sessions
		SET status = ?, exit_code = ?, reason = ?, backup_path = ?,
			crash_path = ?, saved_back = ?, error = ?, ended_at = ?
		WHERE id = ?
	`

	result, err := db.Exec(query,
		f.Status, toNullInt(f.ExitCode), toNullString(f.Reason), toNullString(f.BackupPath),
		toNullString(f.CrashPath), f.SavedBack, toNullString(f.Error), f.EndedAt,
		id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// GetSession retrieves a session by its ULID.
func GetSession(db *sql.DB, id string) (*Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListSessions returns sessions newest first, optionally for one profile,
// along with the total number of matching rows.
func ListSessions(db *sql.DB, profile string, limit, offset int) ([]Session, int, error) {
	where := ""
	var args []any
	if profile != "" {
		where = " WHERE profile = ?"
		args = append(args, profile)
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions` + where +
		` ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return sessions, total, nil
}

// LastProfile returns the profile of the most recent session that ran a
// concrete profile, or "" when there is none.
func LastProfile(db *sql.DB) (string, error) {
	query := `
		SELECT profile FROM sessions
		WHERE profile IS NOT NULL AND no_profile = 0
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var name string
	err := db.QueryRow(query).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return name, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s          Session
		profile    sql.NullString
		exitCode   sql.NullInt64
		reason     sql.NullString
		backupPath sql.NullString
		crashPath  sql.NullString
		errText    sql.NullString
		endedAt    sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &profile, &s.NoProfile, &s.Strategy, &s.Status, &exitCode, &reason,
		&backupPath, &crashPath, &s.SavedBack, &errText, &s.StartedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Profile = fromNullString(profile)
	s.Reason = fromNullString(reason)
	s.BackupPath = fromNullString(backupPath)
	s.CrashPath = fromNullString(crashPath)
	s.Error = fromNullString(errText)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		s.ExitCode = &code
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Int64
	}
	return &s, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func toNullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
