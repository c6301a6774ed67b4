package ops

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/session"
	"github.com/hpungsan/saveslot/internal/snapshot"
	"github.com/hpungsan/saveslot/internal/supervisor"
	"github.com/hpungsan/saveslot/internal/tree"
)

var testNow = time.Date(2025, 8, 3, 20, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ProfileRoot = t.TempDir()
	cfg.GameExecutable = "game"
	if err := os.MkdirAll(cfg.SavedProfilesPath(), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return cfg
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

type scriptedGame struct {
	outcome supervisor.Outcome
	during  func()
	calls   int
}

func (g *scriptedGame) Run(ctx context.Context, exe string, args []string) supervisor.Outcome {
	g.calls++
	if g.during != nil {
		g.during()
	}
	return g.outcome
}

func testController(cfg *config.Config, game supervisor.Supervisor) *session.Controller {
	clock := func() time.Time { return testNow }
	return &session.Controller{
		Config:     cfg,
		Copier:     tree.OS{},
		Supervisor: game,
		Archiver:   &snapshot.Archiver{Copier: tree.OS{}, Now: clock},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        clock,
	}
}
