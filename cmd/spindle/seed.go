package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/db"
	"github.com/zulandar/spindle/internal/seed"
	"github.com/zulandar/spindle/internal/store"
)

func newSeedCmd() *cobra.Command {
	var (
		configPath string
		reset      bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo jobs and archive rows",
		Long:  "Fills the database with random demo data: some current jobs, a short queue per machine, and a week of archived jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath, reset, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing jobs and archive first")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt for --reset")
	return cmd
}

func runSeed(cmd *cobra.Command, configPath string, reset, skipConfirm bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	out := cmd.OutOrStdout()
	if reset && !skipConfirm && !confirm(cmd, "--reset deletes every job and archived job before seeding.") {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	g := seed.New(store.NewGorm(gormDB), cfg.Machines, nil, commandLogger(cmd, cfg))
	sum, err := g.Run(cmd.Context(), reset)
	if err != nil {
		return err
	}

	if reset {
		fmt.Fprintf(out, "Cleared %d existing rows\n", sum.Cleared)
	}
	fmt.Fprintf(out, "Created %d jobs and %d archived jobs\n", sum.Jobs, sum.Archived)

	for _, m := range cfg.Machines {
		current := 0
		if sum.Current[m] {
			current = 1
		}
		fmt.Fprintf(out, "  %s: %d current, %d queued\n", m, current, sum.Queued[m])
	}
	return nil
}
