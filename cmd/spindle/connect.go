package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/config"
	"github.com/zulandar/spindle/internal/db"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/store"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the migrated database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, gormDB, nil
}

// commandLogger writes warnings and errors to the command's stderr so
// table output on stdout stays clean.
func commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	lc := cfg.Log
	if logger.ParseLevel(lc.Level) < slog.LevelWarn {
		lc.Level = "warn"
	}
	return logger.New(lc, cmd.ErrOrStderr())
}

// newManager builds the job manager for a CLI command.
func newManager(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB) *job.Manager {
	return job.New(store.NewGorm(gormDB), job.Options{
		Machines:       cfg.Machines,
		ConflictPolicy: cfg.Engine.CurrentConflict,
		ReferenceYear:  cfg.Engine.ReferenceYear,
		Logger:         commandLogger(cmd, cfg),
	})
}

// confirm asks the user to type "yes". It refuses when stdin is a
// non-interactive file so scripts must pass --yes explicitly.
func confirm(cmd *cobra.Command, warning string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(out, "stdin is not a terminal; pass --yes to confirm.")
		return false
	}

	fmt.Fprintf(out, "WARNING: %s\n", warning)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

// dash renders empty values as "-" in tables.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to max runes, ending with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
