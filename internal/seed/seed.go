// Package seed fills the store with plausible demo jobs and archive rows.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/zulandar/spindle/internal/achievement"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/models"
	"github.com/zulandar/spindle/internal/store"
)

var (
	operators  = []string{"JONI", "DONI", "NANI", "SARI", "BUDI", "ANDI", "RINI", "TONO"}
	modelsList = []string{"MODEL-A1", "MODEL-B2", "MODEL-C3", "MODEL-D4", "MODEL-E5", "MODEL-F6"}
	parts      = []string{"SHAFT", "GEAR", "HOUSING", "BRACKET", "PLATE", "COVER", "BASE", "FLANGE"}
	sizes      = []string{"10x20", "15x30", "20x40", "25x50", "30x60", "35x70", "40x80", "50x100"}
	targets    = []int{2, 3, 4, 5, 6, 8}
	remarks    = []string{
		"Normal operation",
		"Check tool wear",
		"Material shortage",
		"Quality check required",
		"Rush order",
		"Special handling",
		"Customer priority",
		"",
	}
)

// Summary counts what a run produced.
type Summary struct {
	Cleared  int64
	Jobs     int
	Archived int
	Current  map[string]bool
	Queued   map[string]int
}

// Generator produces demo data for a fixed set of machines.
type Generator struct {
	store    store.Store
	machines []string
	rng      *rand.Rand
	now      func() time.Time
	log      *slog.Logger
}

// New creates a Generator. A nil rng is seeded from the clock.
func New(s store.Store, machines []string, rng *rand.Rand, log *slog.Logger) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Generator{store: s, machines: machines, rng: rng, now: time.Now, log: log}
}

// Run writes demo data in one transaction. With reset, existing live and
// archived jobs are removed first. A machine without a current job gets
// one half of the time; every machine gets a queue of one to three jobs, and ten to twenty archive rows are
// spread across all machines.
func (g *Generator) Run(ctx context.Context, reset bool) (*Summary, error) {
	sum := &Summary{Current: map[string]bool{}, Queued: map[string]int{}}
	now := g.now()

	err := g.store.Tx(ctx, func(tx store.Store) error {
		if reset {
			jobs, err := tx.ClearJobs(ctx)
			if err != nil {
				return err
			}
			archived, err := tx.ClearArchived(ctx)
			if err != nil {
				return err
			}
			sum.Cleared = jobs + archived
		}

		for _, machine := range g.machines {
			running, err := tx.FindJobs(ctx, store.JobFilter{Machine: machine, Stage: models.StageCurrent, Limit: 1})
			if err != nil {
				return err
			}
			if g.rng.IntN(2) == 0 && len(running) == 0 {
				if err := tx.InsertJob(ctx, g.currentJob(machine, now)); err != nil {
					return err
				}
				sum.Current[machine] = true
				sum.Jobs++
			}
			n := 1 + g.rng.IntN(3)
			for i := 0; i < n; i++ {
				if err := tx.InsertJob(ctx, g.queuedJob(machine, now)); err != nil {
					return err
				}
			}
			sum.Queued[machine] = n
			sum.Jobs += n
		}

		n := 10 + g.rng.IntN(11)
		for i := 0; i < n; i++ {
			if err := tx.InsertArchived(ctx, g.archivedJob(now)); err != nil {
				return err
			}
		}
		sum.Archived = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	g.log.Info("demo data generated", "jobs", sum.Jobs, "archived", sum.Archived, "cleared", sum.Cleared)
	return sum, nil
}

func (g *Generator) currentJob(machine string, now time.Time) *models.Job {
	j := &models.Job{JobFields: g.fields(machine, models.StageCurrent)}
	start := g.stamp(now, -1)
	j.Start = achievement.FormatStamp(start)
	if g.rng.Float64() < 0.7 {
		hours := 2 + g.rng.IntN(7)
		j.Finish = achievement.FormatStamp(start.Add(time.Duration(hours) * time.Hour))
		j.Achievement = g.score(hours, j.TargetHours)
	}
	return j
}

func (g *Generator) queuedJob(machine string, now time.Time) *models.Job {
	j := &models.Job{JobFields: g.fields(machine, models.StageNext)}
	if g.rng.Float64() < 0.2 {
		j.Start = achievement.FormatStamp(g.stamp(now, g.rng.IntN(3)))
	}
	return j
}

func (g *Generator) archivedJob(now time.Time) *models.ArchivedJob {
	stage := models.StageCurrent
	if g.rng.IntN(2) == 0 {
		stage = models.StageNext
	}
	fields := g.fields(pick(g.rng, g.machines), stage)
	start := g.stamp(now, -(1 + g.rng.IntN(7)))
	hours := 2 + g.rng.IntN(9)
	finish := start.Add(time.Duration(hours) * time.Hour)
	fields.Start = achievement.FormatStamp(start)
	fields.Finish = achievement.FormatStamp(finish)
	fields.Achievement = g.score(hours, fields.TargetHours)
	return &models.ArchivedJob{JobFields: fields, ArchivedAt: finish}
}

func (g *Generator) fields(machine string, stage models.Stage) models.JobFields {
	return models.JobFields{
		Machine:     machine,
		Stage:       stage,
		Model:       pick(g.rng, modelsList),
		Part:        pick(g.rng, parts),
		Size:        pick(g.rng, sizes),
		TargetHours: achievement.FormatTarget(pick(g.rng, targets)),
		Operator:    pick(g.rng, operators),
		Remark:      pick(g.rng, remarks),
	}
}

// stamp returns a time dayOffset days from now between 06:00 and 22:59.
func (g *Generator) stamp(now time.Time, dayOffset int) time.Time {
	d := now.AddDate(0, 0, dayOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), 6+g.rng.IntN(17), g.rng.IntN(60), 0, 0, d.Location())
}

// score works from the real duration so stamps that cross a year boundary
// still score correctly.
func (g *Generator) score(hours int, target string) float64 {
	t, ok := achievement.ParseTarget(target)
	if !ok {
		return 0
	}
	return achievement.Score(float64(hours), t)
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}
