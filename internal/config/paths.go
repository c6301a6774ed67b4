package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/saveslot/internal/errors"
)

// ActiveSlotPath returns the directory the game reads its live save state from.
func (c *Config) ActiveSlotPath() string {
	return filepath.Join(c.ProfileRoot, c.ActiveSlotName)
}

// SavedProfilesPath returns the directory holding saved profiles.
func (c *Config) SavedProfilesPath() string {
	return c.resolve(c.SavedProfilesDir)
}

// CrashPath returns the crash archive root.
func (c *Config) CrashPath() string {
	return c.resolve(c.CrashDir)
}

// ProfilePath returns the persisted location of the named profile.
func (c *Config) ProfilePath(name string) string {
	return filepath.Join(c.SavedProfilesPath(), name)
}

// ExitCode returns the configured normal exit code (0 when unset).
func (c *Config) ExitCode() int {
	if c.NormalExitCode == nil {
		return 0
	}
	return *c.NormalExitCode
}

// LaunchGrace returns the launcher grace delay.
func (c *Config) LaunchGrace() time.Duration {
	return time.Duration(c.LaunchGraceSeconds) * time.Second
}

// PollInterval returns the launcher poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.ProfileRoot, dir)
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProfileRoot) == "" {
		return errors.NewInvalidRequest("profile_root is required (set it in config.json or SAVESLOT_PROFILE_ROOT)")
	}
	if err := validateDirName("active_slot_name", c.ActiveSlotName); err != nil {
		return err
	}
	if strings.TrimSpace(c.SavedProfilesDir) == "" {
		return errors.NewInvalidRequest("saved_profiles_dir must not be empty")
	}
	if strings.TrimSpace(c.CrashDir) == "" {
		return errors.NewInvalidRequest("crash_dir must not be empty")
	}
	// Staging replaces the whole active slot, so nothing persistent may live in or around it
	active := c.ActiveSlotPath()
	if overlaps(c.SavedProfilesPath(), active) {
		return errors.NewInvalidRequest("saved_profiles_dir must be outside the active slot and must not contain it")
	}
	if overlaps(c.CrashPath(), active) {
		return errors.NewInvalidRequest("crash_dir must be outside the active slot and must not contain it")
	}
	if overlaps(c.SavedProfilesPath(), c.CrashPath()) {
		return errors.NewInvalidRequest("saved_profiles_dir and crash_dir must not overlap")
	}
	switch c.Supervision {
	case SupervisionDirect, SupervisionLauncher:
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("supervision must be one of: %s, %s (got %q)",
			SupervisionDirect, SupervisionLauncher, c.Supervision))
	}
	if c.LaunchGraceSeconds < 0 {
		return errors.NewInvalidRequest("launch_grace_seconds must be non-negative")
	}
	if c.PollIntervalSeconds <= 0 {
		return errors.NewInvalidRequest("poll_interval_seconds must be positive")
	}
	return nil
}

// ValidateRun additionally requires a game executable.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.GameExecutable) == "" {
		return errors.NewInvalidRequest("game_executable is required (set it in config.json or SAVESLOT_GAME_EXECUTABLE)")
	}
	return nil
}

func validateDirName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewInvalidRequest(field + " must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.NewInvalidRequest(field + " must be a single directory name")
	}
	return nil
}

// overlaps reports whether a and b are the same directory or one lies inside the other.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether path is dir itself or lies below it. Paths are
// compared lexically; symlinks are not resolved.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
