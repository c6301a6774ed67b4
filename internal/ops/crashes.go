package ops

import (
	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/snapshot"
)

// CrashesOutput contains the result of the Crashes operation.
type CrashesOutput struct {
	Items     []snapshot.Entry `json:"items"`
	CrashRoot string           `json:"crash_root"`
}

// Crashes lists crash archive entries, oldest first.
func Crashes(cfg *config.Config) (*CrashesOutput, error) {
	entries, err := snapshot.List(cfg.CrashPath())
	if err != nil {
		return nil, err
	}
	return &CrashesOutput{Items: entries, CrashRoot: cfg.CrashPath()}, nil
}
