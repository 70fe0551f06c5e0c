package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitstore/internal/cli"
	"github.com/julianstephens/habitstore/internal/cli/system"
	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/errors"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/storage/postgres"
)

var CLI struct {
	Version kong.VersionFlag
	DB      string `help:"SQLite file path or PostgreSQL URL. PostgreSQL URLs must NOT embed a password; use the OS keyring or .pgpass instead." env:"HABITSTORE_DB" default:"${default_db}"`
	Debug   bool   `help:"Log debug output to stderr." env:"HABITSTORE_DEBUG"`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitstore storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit   cli.HabitCmd      `cmd:"" help:"Manage habits."`
	Stats   cli.StatsCmd      `cmd:"" help:"Show streaks and completion rates."`
	Risk    cli.RiskCmd       `cmd:"" help:"List habits that are usually missed on this weekday."`
	Nudge   cli.NudgeCmd      `cmd:"" help:"Show today's coaching nudge."`
	Insight cli.InsightCmd    `cmd:"" help:"Summarise this week's progress."`
	Watch   cli.WatchCmd      `cmd:"" help:"Print the habit list every time it changes."`
	Backup  system.BackupCmd  `cmd:"" help:"Manage SQLite database backups."`
	Config  system.ConfigCmd  `cmd:"" help:"Manage the stored PostgreSQL connection."`
}

// needsLoadedStore reports whether the selected command works on an
// existing, schema-valid database.
func needsLoadedStore(command string) bool {
	for _, prefix := range []string{"init", "migrate", "config", "backup"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

func logDir(target string) string {
	if postgres.IsConnString(target) {
		return filepath.Dir(cli.ExpandPath(constants.DefaultConfigPath))
	}
	return filepath.Dir(cli.ExpandPath(target))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with a live-updating habit store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"default_db": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: logDir(CLI.DB)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	store, err := cli.OpenStore(CLI.DB)
	if err != nil {
		errors.Fatal(err)
	}

	appCtx := cli.NewContext(store)

	if needsLoadedStore(ctx.Command()) {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close store", "error", closeErr)
	}
	errors.Fatal(err)
}
