package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/saveslot/internal/bootstrap"
	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/mcp"
	"github.com/hpungsan/saveslot/internal/ops"
	"github.com/hpungsan/saveslot/internal/session"
	"github.com/hpungsan/saveslot/internal/snapshot"
	"github.com/hpungsan/saveslot/internal/supervisor"
	"github.com/hpungsan/saveslot/internal/tree"
)

// appDeps is everything the commands need. Tests build one by hand.
type appDeps struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
	copier tree.Copier

	newSupervisor func(cfg *config.Config, logger *slog.Logger) supervisor.Supervisor

	// choose picks a profile when run is invoked without one. nil means
	// a profile (or --no-profile) must be given explicitly.
	choose func(list *ops.ListProfilesOutput) (ops.RunInput, error)

	now func() time.Time
}

func (d *appDeps) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *appDeps) *cli.App {
	app := &cli.App{
		Name:    "saveslot",
		Usage:   "Swap game save profiles in and out of the active slot",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") && deps.level != nil {
				deps.level.Set(slog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			initCmd(deps),
			listCmd(deps),
			createCmd(deps),
			runCmd(deps),
			historyCmd(deps),
			showCmd(deps),
			crashesCmd(deps),
			verifyCmd(deps),
			mcpCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// initCmd creates the init command.
func initCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create missing directories and a default profile",
		Action: func(c *cli.Context) error {
			report, err := bootstrap.Ensure(deps.cfg, deps.copier, deps.log())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(report)
		},
	}
}

// listCmd creates the list command.
func listCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved profiles",
		Action: func(c *cli.Context) error {
			if err := deps.cfg.Validate(); err != nil {
				return outputError(err)
			}
			output, err := ops.ListProfiles(deps.db, deps.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// createCmd creates the create command.
func createCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a profile from the active slot or another profile",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "Copy this profile instead of the active slot"},
		},
		Action: func(c *cli.Context) error {
			if err := deps.cfg.Validate(); err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one profile name is required"))
			}

			output, err := ops.CreateProfile(deps.cfg, deps.copier, ops.CreateProfileInput{
				Name: c.Args().First(),
				From: c.String("from"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// runCmd creates the run command.
func runCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Stage a profile, play, then save the slot back",
		ArgsUsage: "[PROFILE]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-profile", Aliases: []string{"n"}, Usage: "Play with the active slot as-is"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "Supervision strategy: direct|launcher (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return outputError(errors.NewInvalidRequest("at most one profile may be given"))
			}

			cfg := *deps.cfg
			if s := strings.TrimSpace(c.String("strategy")); s != "" {
				cfg.Supervision = s
			}
			if err := cfg.ValidateRun(); err != nil {
				return outputError(err)
			}

			input := ops.RunInput{
				Profile:   c.Args().First(),
				NoProfile: c.Bool("no-profile"),
			}
			if input.Profile == "" && !input.NoProfile && deps.choose != nil {
				list, err := ops.ListProfiles(deps.db, &cfg)
				if err != nil {
					return outputError(err)
				}
				if input, err = deps.choose(list); err != nil {
					return outputError(err)
				}
			}

			logger := deps.log()
			ctrl := &session.Controller{
				Config:     &cfg,
				Copier:     deps.copier,
				Supervisor: deps.newSupervisor(&cfg, logger),
				Archiver:   &snapshot.Archiver{Copier: deps.copier, Now: deps.now},
				Logger:     logger,
				Now:        deps.now,
			}

			output, err := ops.Run(c.Context, deps.db, ctrl, input)
			if output != nil {
				if jsonErr := outputJSON(output); jsonErr != nil && err == nil {
					return jsonErr
				}
			}
			if err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// historyCmd creates the history command.
func historyCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past sessions, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: "Filter by profile"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultHistoryLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(deps.db, ops.HistoryInput{
				Profile: c.String("profile"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one past session",
		ArgsUsage: "SESSION_ID",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one session id is required"))
			}
			output, err := ops.GetSession(deps.db, ops.GetSessionInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// crashesCmd creates the crashes command.
func crashesCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "crashes",
		Usage: "List crash archive entries",
		Action: func(c *cli.Context) error {
			if err := deps.cfg.Validate(); err != nil {
				return outputError(err)
			}
			output, err := ops.Crashes(deps.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// verifyCmd creates the verify command.
func verifyCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Compare a saved profile with the active slot",
		ArgsUsage: "PROFILE",
		Action: func(c *cli.Context) error {
			if err := deps.cfg.Validate(); err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one profile name is required"))
			}
			output, err := ops.Verify(deps.cfg, ops.VerifyInput{Profile: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve read-only tools over MCP stdio",
		Action: func(c *cli.Context) error {
			warnDisabled(deps.cfg, deps.log())
			if err := mcp.Run(deps.db, deps.cfg, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// warnDisabled logs disabled_tools and disabled_types entries that match nothing.
func warnDisabled(cfg *config.Config, logger *slog.Logger) {
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn("unknown tool in disabled_tools", "tool", name, "known", mcp.AllToolNames())
	}
	for _, name := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		logger.Warn("unknown type in disabled_types", "type", name)
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if slotErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", slotErr.Code, slotErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
