package ops

import (
	"database/sql"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/profile"
	"github.com/hpungsan/saveslot/internal/tree"
)

// ProfileSummary is one saved profile as shown to users.
type ProfileSummary struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	LastUsed bool   `json:"last_used,omitempty"`
}

// ListProfilesOutput contains the result of the ListProfiles operation.
type ListProfilesOutput struct {
	Items      []ProfileSummary `json:"items"`
	ActiveSlot string           `json:"active_slot"`
	LastUsed   string           `json:"last_used,omitempty"`
}

// ListProfiles returns the saved profiles sorted by name. database may be nil,
// in which case no profile is marked as last used.
func ListProfiles(database *sql.DB, cfg *config.Config) (*ListProfilesOutput, error) {
	root := cfg.SavedProfilesPath()
	names, err := profile.List(root)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	last := ""
	if database != nil {
		if last, err = db.LastProfile(database); err != nil {
			return nil, err
		}
	}

	items := make([]ProfileSummary, 0, len(names))
	for _, name := range names {
		items = append(items, ProfileSummary{
			Name:     name,
			Path:     filepath.Join(root, name),
			LastUsed: name == last,
		})
	}

	return &ListProfilesOutput{
		Items:      items,
		ActiveSlot: cfg.ActiveSlotPath(),
		LastUsed:   last,
	}, nil
}

// CreateProfileInput contains parameters for the CreateProfile operation.
type CreateProfileInput struct {
	Name string
	From string // existing profile to copy; empty copies the active slot
}

// CreateProfileOutput contains the result of the CreateProfile operation.
type CreateProfileOutput struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Source string `json:"source"`
}

// CreateProfile copies the active slot, or another profile, into a new profile.
func CreateProfile(cfg *config.Config, copier tree.Copier, input CreateProfileInput) (*CreateProfileOutput, error) {
	if err := profile.ValidateName(input.Name); err != nil {
		return nil, err
	}

	root := cfg.SavedProfilesPath()
	src := cfg.ActiveSlotPath()
	if from := strings.TrimSpace(input.From); from != "" {
		if err := profile.ValidateName(from); err != nil {
			return nil, err
		}
		ok, err := profile.Exists(root, from)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewNotFound("profile " + from)
		}
		src = cfg.ProfilePath(from)
	}

	p, err := profile.Create(copier, root, input.Name, src)
	if err != nil {
		return nil, err
	}
	return &CreateProfileOutput{Name: p.Name, Path: p.Path, Source: src}, nil
}
