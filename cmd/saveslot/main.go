package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/mcp"
	"github.com/hpungsan/saveslot/internal/supervisor"
	"github.com/hpungsan/saveslot/internal/tree"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// The game keeps running on Ctrl-C; saveslot must live long enough to reconcile
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle --help/--version before touching ~/.saveslot
	if isHelpOrVersion() {
		app := newCLIApp(&appDeps{})
		if err := app.RunContext(ctx, os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".saveslot")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()

	args := os.Args
	if len(args) < 2 {
		// No args + piped stdin → MCP server
		if !isTerminal() {
			warnDisabled(cfg, logger)
			if err := mcp.Run(database, cfg, Version); err != nil {
				logger.Error("mcp server stopped", "error", err)
				os.Exit(1)
			}
			return
		}
		// No args + terminal → pick a profile and play
		args = append(args, "run")
	}

	deps := &appDeps{
		db:            database,
		cfg:           cfg,
		logger:        logger,
		level:         level,
		copier:        tree.OS{},
		newSupervisor: supervisor.New,
	}
	if isTerminal() {
		deps.choose = promptChooser
	}

	app := newCLIApp(deps)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
