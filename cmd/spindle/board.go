package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/db"
)

func newBoardCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show every machine's current job and queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	return cmd
}

func runBoard(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	m := newManager(cmd, cfg, gormDB)
	board, err := m.Dashboard(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MACHINE\tCURRENT\tSTART\tFINISH\tTARGET\tQUEUED\tTOTAL")
	for _, name := range m.Machines() {
		entry := board[name]
		current, start, finish, target := "-", "-", "-", "-"
		if c := entry.Current; c != nil {
			current = fmt.Sprintf("#%d %s", c.ID, truncate(c.Model+" "+c.Part, 30))
			start, finish, target = dash(c.Start), dash(c.Finish), c.TargetHours
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", name, current, start, finish, target, len(entry.Next), entry.Total)
	}
	w.Flush()
	return nil
}
