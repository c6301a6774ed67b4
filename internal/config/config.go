package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Supervision strategies for the game process.
const (
	SupervisionDirect   = "direct"
	SupervisionLauncher = "launcher"
)

// Config holds application configuration.
type Config struct {
	// ProfileRoot is the directory holding the active slot (e.g. PlayerProfiles).
	ProfileRoot string `json:"profile_root"`

	// ActiveSlotName is the fixed subdirectory of ProfileRoot the game reads.
	ActiveSlotName string `json:"active_slot_name,omitempty"`

	// SavedProfilesDir holds one directory per saved profile.
	// Relative values are resolved against ProfileRoot.
	SavedProfilesDir string `json:"saved_profiles_dir,omitempty"`

	// CrashDir is the crash archive root. Relative values are resolved against ProfileRoot.
	CrashDir string `json:"crash_dir,omitempty"`

	// DefaultProfile is the name used when bootstrapping an empty saved-profiles directory.
	DefaultProfile string `json:"default_profile,omitempty"`

	GameExecutable string   `json:"game_executable,omitempty"`
	GameArgs       []string `json:"game_args,omitempty"`

	// NormalExitCode is the exit code treated as a clean shutdown. nil means 0.
	NormalExitCode *int `json:"normal_exit_code,omitempty"`

	// Supervision selects how the game is waited on: "direct" waits for the spawned
	// process, "launcher" polls the process table for the executable after the
	// spawned launcher hands off. Under "launcher" no exit code is observable and
	// every run is reported as normal.
	Supervision string `json:"supervision,omitempty"`

	// LaunchGraceSeconds is how long launcher supervision waits before the first poll.
	LaunchGraceSeconds int `json:"launch_grace_seconds,omitempty"`

	// PollIntervalSeconds is the launcher supervision poll period.
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "profile", "session", "crash".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// envOverrides holds the settings that may come from the environment.
type envOverrides struct {
	ProfileRoot    *string `env:"SAVESLOT_PROFILE_ROOT"`
	ActiveSlotName *string `env:"SAVESLOT_ACTIVE_SLOT"`
	GameExecutable *string `env:"SAVESLOT_GAME_EXECUTABLE"`
	NormalExitCode *int    `env:"SAVESLOT_NORMAL_EXIT_CODE"`
	Supervision    *string `env:"SAVESLOT_SUPERVISION"`
	LogLevel       *string `env:"SAVESLOT_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ActiveSlotName:      "Public",
		SavedProfilesDir:    "SavedProfiles",
		CrashDir:            "Crash",
		DefaultProfile:      "Default",
		Supervision:         SupervisionDirect,
		LaunchGraceSeconds:  10,
		PollIntervalSeconds: 2,
		LogLevel:            "info",
	}
}

// Load loads configuration from baseDir/config.json and applies environment overrides.
// Returns default config (plus overrides) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.saveslot.
func Load(baseDir string) (*Config, error) {
	return LoadWithEnv(baseDir, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads the process environment.
func LoadWithEnv(baseDir string, environ map[string]string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	envCfg, err := loadEnv(environ)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then file, then environment
	return Merge(Merge(DefaultConfig(), fileCfg), envCfg), nil
}

// Save writes cfg to baseDir/config.json via a temp file and rename.
func Save(baseDir string, cfg *Config) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(baseDir, "config.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadEnv reads SAVESLOT_* overrides into a zero-valued config.
func loadEnv(environ map[string]string) (*Config, error) {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{NormalExitCode: o.NormalExitCode}
	if o.ProfileRoot != nil {
		cfg.ProfileRoot = *o.ProfileRoot
	}
	if o.ActiveSlotName != nil {
		cfg.ActiveSlotName = *o.ActiveSlotName
	}
	if o.GameExecutable != nil {
		cfg.GameExecutable = *o.GameExecutable
	}
	if o.Supervision != nil {
		cfg.Supervision = *o.Supervision
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; disabled lists are merged and deduplicated.
// GameArgs is replaced wholesale since argument order matters.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ProfileRoot = pick(overlay.ProfileRoot, base.ProfileRoot)
	result.ActiveSlotName = pick(overlay.ActiveSlotName, base.ActiveSlotName)
	result.SavedProfilesDir = pick(overlay.SavedProfilesDir, base.SavedProfilesDir)
	result.CrashDir = pick(overlay.CrashDir, base.CrashDir)
	result.DefaultProfile = pick(overlay.DefaultProfile, base.DefaultProfile)
	result.GameExecutable = pick(overlay.GameExecutable, base.GameExecutable)
	result.Supervision = pick(overlay.Supervision, base.Supervision)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)

	result.LaunchGraceSeconds = overlay.LaunchGraceSeconds
	if result.LaunchGraceSeconds == 0 {
		result.LaunchGraceSeconds = base.LaunchGraceSeconds
	}

	result.PollIntervalSeconds = overlay.PollIntervalSeconds
	if result.PollIntervalSeconds == 0 {
		result.PollIntervalSeconds = base.PollIntervalSeconds
	}

	// Pointer: overlay wins if set, so an explicit 0 can override a non-zero base
	result.NormalExitCode = base.NormalExitCode
	if overlay.NormalExitCode != nil {
		v := *overlay.NormalExitCode
		result.NormalExitCode = &v
	}

	result.GameArgs = base.GameArgs
	if len(overlay.GameArgs) > 0 {
		result.GameArgs = append([]string(nil), overlay.GameArgs...)
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pick(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
