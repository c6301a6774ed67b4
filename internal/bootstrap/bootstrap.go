// Package bootstrap prepares the directory layout saveslot expects.
package bootstrap

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/profile"
	"github.com/hpungsan/saveslot/internal/tree"
)

// Report describes what Ensure changed.
type Report struct {
	CreatedDirs []string `json:"created_dirs"`

	// DefaultProfile is set when the saved-profiles directory was empty and a
	// first profile was created.
	DefaultProfile string `json:"default_profile,omitempty"`

	// FromActiveSlot reports whether the default profile was copied from the
	// active slot rather than created empty.
	FromActiveSlot bool `json:"from_active_slot"`
}

// Ensure creates missing directories and, when no profile exists yet, seeds
// the default profile from the active slot. It is safe to call repeatedly.
func Ensure(cfg *config.Config, copier tree.Copier, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{CreatedDirs: []string{}}
	for _, dir := range []string{cfg.ProfileRoot, cfg.SavedProfilesPath(), cfg.CrashPath()} {
		created, err := mkdir(dir)
		if err != nil {
			return nil, err
		}
		if created {
			report.CreatedDirs = append(report.CreatedDirs, dir)
			logger.Info("created directory", "path", dir)
		}
	}

	names, err := profile.List(cfg.SavedProfilesPath())
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return report, nil
	}

	name := cfg.DefaultProfile
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}
	dst := cfg.ProfilePath(name)
	active := cfg.ActiveSlotPath()

	info, err := os.Stat(active)
	switch {
	case err == nil && info.IsDir():
		if _, err := profile.Create(copier, cfg.SavedProfilesPath(), name, active); err != nil {
			return nil, err
		}
		report.FromActiveSlot = true
		logger.Info("created default profile from active slot", "from", active, "to", dst)
	case err == nil || os.IsNotExist(err):
		if err := os.Mkdir(dst, 0755); err != nil {
			return nil, errors.NewIO("create profile", err, dst)
		}
		logger.Info("created empty default profile", "path", dst)
	default:
		return nil, errors.NewIO("stat", err, active)
	}
	report.DefaultProfile = name
	return report, nil
}

func mkdir(dir string) (bool, error) {
	dir = filepath.Clean(dir)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return false, errors.NewIO("mkdir", os.ErrExist, dir)
		}
		return false, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, errors.NewIO("mkdir", err, dir)
	}
	return true, nil
}
