package ops

import (
	"os"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/profile"
	"github.com/hpungsan/saveslot/internal/tree"
)

// VerifyInput contains parameters for the Verify operation.
type VerifyInput struct {
	Profile string
}

// VerifyOutput contains the result of the Verify operation.
type VerifyOutput struct {
	Profile     string            `json:"profile"`
	ProfilePath string            `json:"profile_path"`
	ActiveSlot  string            `json:"active_slot"`
	Equal       bool              `json:"equal"`
	Differences []tree.Difference `json:"differences"`
}

// Verify compares a saved profile with the current active slot.
// Nothing is modified.
func Verify(cfg *config.Config, input VerifyInput) (*VerifyOutput, error) {
	if err := profile.ValidateName(input.Profile); err != nil {
		return nil, err
	}
	ok, err := profile.Exists(cfg.SavedProfilesPath(), input.Profile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("profile " + input.Profile)
	}

	active := cfg.ActiveSlotPath()
	if _, err := os.Stat(active); os.IsNotExist(err) {
		return nil, errors.NewNotFound("active slot " + active)
	}

	diffs, err := tree.Diff(cfg.ProfilePath(input.Profile), active)
	if err != nil {
		return nil, err
	}
	if diffs == nil {
		diffs = []tree.Difference{}
	}

	return &VerifyOutput{
		Profile:     input.Profile,
		ProfilePath: cfg.ProfilePath(input.Profile),
		ActiveSlot:  active,
		Equal:       len(diffs) == 0,
		Differences: diffs,
	}, nil
}
