package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/db"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/models"
	"github.com/zulandar/spindle/internal/store"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Job management commands",
	}

	cmd.AddCommand(newJobCreateCmd())
	cmd.AddCommand(newJobListCmd())
	cmd.AddCommand(newJobShowCmd())
	cmd.AddCommand(newJobEditCmd())
	cmd.AddCommand(newJobFinishCmd())
	cmd.AddCommand(newJobNavCmd())
	return cmd
}

// bindJobFlags registers one flag per job field on cmd.
func bindJobFlags(cmd *cobra.Command, f *job.Fields) {
	cmd.Flags().StringVarP(&f.Machine, "machine", "m", "", "machine name, e.g. CNC1")
	cmd.Flags().StringVar((*string)(&f.Stage), "stage", string(models.StageNext), "current or next")
	cmd.Flags().StringVar(&f.Model, "model", "", "model")
	cmd.Flags().StringVar(&f.Part, "part", "", "part")
	cmd.Flags().StringVar(&f.Size, "size", "", "size")
	cmd.Flags().StringVar(&f.Start, "start", "", `start time, "DD/MM - HH:MM"`)
	cmd.Flags().StringVar(&f.Finish, "finish", "", `finish time, "DD/MM - HH:MM"`)
	cmd.Flags().StringVarP(&f.TargetHours, "target", "t", "", `target duration, e.g. "4 H"`)
	cmd.Flags().StringVar(&f.Operator, "operator", "", "operator name")
	cmd.Flags().StringVar(&f.Remark, "remark", "", "free-text remark")
}

func newJobCreateCmd() *cobra.Command {
	var (
		configPath string
		fields     job.Fields
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new job",
		Long:  "Creates a job on a machine, either as its current job or queued as next. Achievement is computed when both start and finish are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobCreate(cmd, configPath, fields)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	bindJobFlags(cmd, &fields)
	return cmd
}

func runJobCreate(cmd *cobra.Command, configPath string, fields job.Fields) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	j, err := newManager(cmd, cfg, gormDB).Create(cmd.Context(), fields)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created job %d on %s (%s), achievement %.1f%%\n", j.ID, j.Machine, j.Stage, j.Achievement)
	return nil
}

func newJobListCmd() *cobra.Command {
	var (
		configPath string
		machine    string
		stage      string
		desc       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Long:  "Lists live jobs by ascending id (or newest first with --desc) with optional machine and stage filters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.JobFilter{Machine: machine, Stage: models.Stage(stage)}
			if desc {
				filter.Order = store.OrderIDDesc
			}
			return runJobList(cmd, configPath, filter)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().StringVarP(&machine, "machine", "m", "", "filter by machine")
	cmd.Flags().StringVar(&stage, "stage", "", "filter by stage (current or next)")
	cmd.Flags().BoolVar(&desc, "desc", false, "newest jobs first")
	return cmd
}

func runJobList(cmd *cobra.Command, configPath string, filter store.JobFilter) error {
	if filter.Stage != "" && !filter.Stage.Valid() {
		return fmt.Errorf("stage %q must be current or next", filter.Stage)
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	jobs, err := newManager(cmd, cfg, gormDB).List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMACHINE\tSTAGE\tMODEL\tPART\tSTART\tFINISH\tTARGET\tOPERATOR\tACH")
	for _, j := range jobs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.1f\n",
			j.ID, j.Machine, j.Stage, truncate(j.Model, 20), truncate(j.Part, 20),
			dash(j.Start), dash(j.Finish), j.TargetHours, j.Operator, j.Achievement)
	}
	w.Flush()
	return nil
}

func newJobShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	return cmd
}

func runJobShow(cmd *cobra.Command, configPath, rawID string) error {
	id, err := parseJobID(rawID)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	j, err := newManager(cmd, cfg, gormDB).Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d\n", j.ID)
	fmt.Fprintf(out, "  Machine:     %s\n", j.Machine)
	fmt.Fprintf(out, "  Stage:       %s\n", j.Stage)
	fmt.Fprintf(out, "  Model:       %s\n", j.Model)
	fmt.Fprintf(out, "  Part:        %s\n", j.Part)
	fmt.Fprintf(out, "  Size:        %s\n", j.Size)
	fmt.Fprintf(out, "  Start:       %s\n", dash(j.Start))
	fmt.Fprintf(out, "  Finish:      %s\n", dash(j.Finish))
	fmt.Fprintf(out, "  Target:      %s\n", j.TargetHours)
	fmt.Fprintf(out, "  Operator:    %s\n", j.Operator)
	fmt.Fprintf(out, "  Achievement: %.1f%%\n", j.Achievement)
	if j.Remark != "" {
		fmt.Fprintf(out, "  Remark:      %s\n", j.Remark)
	}
	return nil
}

func newJobEditCmd() *cobra.Command {
	var (
		configPath string
		fields     job.Fields
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a job's fields",
		Long: `Replaces every field of a job. Flags that are not given keep the job's
current value; pass an empty string (e.g. --finish "") to clear one.
Achievement is recomputed only when both start and finish are set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobEdit(cmd, configPath, args[0], fields)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	bindJobFlags(cmd, &fields)
	return cmd
}

func runJobEdit(cmd *cobra.Command, configPath, rawID string, flags job.Fields) error {
	id, err := parseJobID(rawID)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	m := newManager(cmd, cfg, gormDB)
	existing, err := m.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	merged := job.FieldsOf(existing)
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("machine", &merged.Machine, flags.Machine)
	set("stage", (*string)(&merged.Stage), string(flags.Stage))
	set("model", &merged.Model, flags.Model)
	set("part", &merged.Part, flags.Part)
	set("size", &merged.Size, flags.Size)
	set("start", &merged.Start, flags.Start)
	set("finish", &merged.Finish, flags.Finish)
	set("target", &merged.TargetHours, flags.TargetHours)
	set("operator", &merged.Operator, flags.Operator)
	set("remark", &merged.Remark, flags.Remark)

	j, err := m.Replace(cmd.Context(), id, merged)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated job %d, achievement %.1f%%\n", j.ID, j.Achievement)
	return nil
}

func newJobFinishCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "finish <id>",
		Short: "Archive a finished job",
		Long:  "Moves a job with a finish time into the archive. If it was its machine's current job, the lowest-id queued job becomes current.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobFinish(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	return cmd
}

func runJobFinish(cmd *cobra.Command, configPath, rawID string) error {
	id, err := parseJobID(rawID)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	res, err := newManager(cmd, cfg, gormDB).Finish(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Archived job %d (%s), achievement %.1f%%\n", id, res.Archived.Machine, res.Archived.Achievement)
	if res.Promoted != nil {
		fmt.Fprintf(out, "Promoted job %d to current on %s\n", res.Promoted.ID, res.Promoted.Machine)
	} else {
		fmt.Fprintln(out, "No queued job promoted.")
	}
	return nil
}

func newJobNavCmd() *cobra.Command {
	var (
		configPath string
		from       uint
	)

	cmd := &cobra.Command{
		Use:   "nav <machine> <next|prev>",
		Short: "Step through a machine's queue",
		Long:  "Prints the queued job after (next) or before (prev) the job given by --from, wrapping around at either end.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobNav(cmd, configPath, args[0], job.Direction(args[1]), from)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().UintVar(&from, "from", 0, "current position in the queue (job id)")
	return cmd
}

func runJobNav(cmd *cobra.Command, configPath, machine string, dir job.Direction, from uint) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	j, err := newManager(cmd, cfg, gormDB).Navigate(cmd.Context(), machine, dir, from)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if j == nil {
		fmt.Fprintf(out, "No queued jobs on %s.\n", machine)
		return nil
	}
	fmt.Fprintf(out, "%d\t%s %s (%s)\ttarget %s\t%s\n", j.ID, j.Model, j.Part, j.Size, j.TargetHours, j.Operator)
	return nil
}

func parseJobID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return uint(n), nil
}
