package session

import (
	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/profile"
)

// Selection is either a concrete profile or the "no profile" sentinel.
type Selection struct {
	Profile string
	none    bool
}

// NoProfile returns the sentinel selection: run with whatever is in the
// active slot, without staging or save-back.
func NoProfile() Selection {
	return Selection{none: true}
}

// IsNoProfile reports whether s is the sentinel.
func (s Selection) IsNoProfile() bool {
	return s.none
}

// String returns the profile name, or the reserved sentinel name.
func (s Selection) String() string {
	if s.none {
		return profile.Reserved
	}
	return s.Profile
}

// Select validates name against the catalog and returns a concrete selection.
// Nothing on disk is changed.
func Select(cfg *config.Config, name string) (Selection, error) {
	sel := Selection{Profile: name}
	if err := validate(cfg, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

func validate(cfg *config.Config, sel Selection) error {
	if sel.none {
		return nil
	}
	if err := profile.ValidateName(sel.Profile); err != nil {
		return err
	}
	ok, err := profile.Exists(cfg.SavedProfilesPath(), sel.Profile)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewInvalidSelection(sel.Profile, "no such profile")
	}
	return nil
}
