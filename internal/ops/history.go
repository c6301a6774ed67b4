package ops

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/errors"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Profile string // optional filter
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Items      []db.Session `json:"items"`
	Pagination Pagination   `json:"pagination"`
	Sort       string       `json:"sort"`
}

// History lists journaled sessions, newest first.
func History(database *sql.DB, input HistoryInput) (*HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	offset := max(input.Offset, 0)

	sessions, total, err := db.ListSessions(database, strings.TrimSpace(input.Profile), limit, offset)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{
		Items: sessions,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(sessions) < total,
			Total:   total,
		},
		Sort: "started_at_desc",
	}, nil
}

// GetSessionInput contains parameters for the GetSession operation.
type GetSessionInput struct {
	ID string
}

// GetSession returns one journaled session.
func GetSession(database *sql.DB, input GetSessionInput) (*db.Session, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("session id is required")
	}
	return db.GetSession(database, id)
}
