package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/db"
	"github.com/zulandar/spindle/internal/export"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archived job commands",
	}

	cmd.AddCommand(newArchiveListCmd())
	cmd.AddCommand(newArchiveClearCmd())
	cmd.AddCommand(newArchiveExportCmd())
	return cmd
}

func newArchiveListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	return cmd
}

func runArchiveList(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	rows, err := newManager(cmd, cfg, gormDB).ListArchive(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "Archive is empty.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tMACHINE\tMODEL\tPART\tSTART\tFINISH\tTARGET\tOPERATOR\tACH\tARCHIVED")
	for _, a := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			a.SourceJobID, a.Machine, truncate(a.Model, 20), truncate(a.Part, 20),
			dash(a.Start), dash(a.Finish), a.TargetHours, a.Operator, a.Achievement,
			a.ArchivedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}

func newArchiveClearCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every archived job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveClear(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runArchiveClear(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	out := cmd.OutOrStdout()
	if !skipConfirm && !confirm(cmd, "This will permanently delete every archived job.") {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	n, err := newManager(cmd, cfg, gormDB).ClearArchive(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d archived jobs.\n", n)
	return nil
}

func newArchiveExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the archive to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveExport(cmd, configPath, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().StringVarP(&output, "output", "o", "archive.xlsx", "output file")
	return cmd
}

func runArchiveExport(cmd *cobra.Command, configPath, output string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	rows, err := newManager(cmd, cfg, gormDB).ListArchive(cmd.Context())
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := export.WriteArchive(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d archived jobs to %s\n", len(rows), output)
	return nil
}
