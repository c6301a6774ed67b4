package bootstrap

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/tree"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ProfileRoot = filepath.Join(t.TempDir(), "PlayerProfiles")
	return cfg
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsure_FreshInstallWithoutActiveSlot(t *testing.T) {
	cfg := testConfig(t)

	report, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)
	require.Equal(t, []string{cfg.ProfileRoot, cfg.SavedProfilesPath(), cfg.CrashPath()}, report.CreatedDirs)
	require.Equal(t, "Default", report.DefaultProfile)
	require.False(t, report.FromActiveSlot)

	entries, err := os.ReadDir(cfg.ProfilePath("Default"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestEnsure_SeedsDefaultFromActiveSlot(t *testing.T) {
	cfg := testConfig(t)
	active := cfg.ActiveSlotPath()
	require.NoError(t, os.MkdirAll(filepath.Join(active, "Savegames"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(active, "Savegames", "a.lsv"), []byte("A"), 0644))

	report, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)
	require.True(t, report.FromActiveSlot)
	require.Equal(t, []string{cfg.SavedProfilesPath(), cfg.CrashPath()}, report.CreatedDirs)

	equal, err := tree.Equal(active, cfg.ProfilePath("Default"))
	require.NoError(t, err)
	require.True(t, equal)
}

func TestEnsure_Idempotent(t *testing.T) {
	cfg := testConfig(t)

	_, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)

	report, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)
	require.Empty(t, report.CreatedDirs)
	require.Empty(t, report.DefaultProfile)
}

func TestEnsure_ExistingProfilesLeftAlone(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ProfilePath("Honour"), 0755))

	report, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)
	require.Empty(t, report.DefaultProfile)

	_, err = os.Stat(cfg.ProfilePath("Default"))
	require.True(t, os.IsNotExist(err))
}

func TestEnsure_CustomDefaultName(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultProfile = "Main"

	report, err := Ensure(cfg, tree.OS{}, quiet())
	require.NoError(t, err)
	require.Equal(t, "Main", report.DefaultProfile)
	require.DirExists(t, cfg.ProfilePath("Main"))
}

func TestEnsure_ReservedDefaultName(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultProfile = "NoProfile"

	_, err := Ensure(cfg, tree.OS{}, quiet())
	require.True(t, errors.Is(err, errors.ErrInvalidSelection))
}

func TestEnsure_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := Ensure(cfg, tree.OS{}, quiet())
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestEnsure_PathIsFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ProfileRoot, 0755))
	require.NoError(t, os.WriteFile(cfg.CrashPath(), []byte("x"), 0644))

	_, err := Ensure(cfg, tree.OS{}, quiet())
	require.True(t, errors.Is(err, errors.ErrIO))
}
