// Package job implements the machine job lifecycle: creating and replacing
// jobs, finishing them into the archive, promoting the next queued job, and
// the read-only queue, dashboard and archive views.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/spindle/internal/achievement"
	"github.com/zulandar/spindle/internal/config"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/models"
	"github.com/zulandar/spindle/internal/store"
)

// Fields is the full set of client-supplied job fields. Achievement is not
// part of it; it is always derived.
type Fields struct {
	Machine     string       `json:"machine"`
	Stage       models.Stage `json:"stage"`
	Model       string       `json:"model"`
	Part        string       `json:"part"`
	Size        string       `json:"size"`
	Start       string       `json:"start"`
	Finish      string       `json:"finish"`
	TargetHours string       `json:"target_hours"`
	Operator    string       `json:"operator"`
	Remark      string       `json:"remark"`
}

// FinishResult is the outcome of finishing a job.
type FinishResult struct {
	Archived *models.ArchivedJob `json:"archived"`
	Promoted *models.Job         `json:"promoted"`
}

// Notifier is told about every committed completion. Errors are logged and
// never undo the completion.
type Notifier interface {
	NotifyFinished(ctx context.Context, res *FinishResult) error
}

// Recorder receives lifecycle counters.
type Recorder interface {
	JobCreated(machine string, stage models.Stage)
	JobFinished(machine string, achievement float64)
	JobPromoted(machine string)
	ArchiveCleared(n int64)
}

// Options configures a Manager.
type Options struct {
	Machines []string
	// ConflictPolicy is config.ConflictReject or config.ConflictDemote.
	ConflictPolicy string
	ReferenceYear  int
	Logger         *slog.Logger
	Notifier       Notifier
	Metrics        Recorder
	Now            func() time.Time
}

// Manager owns the job lifecycle rules on top of a Store.
type Manager struct {
	store    store.Store
	machines []string
	known    map[string]bool
	policy   string
	calc     achievement.Calculator
	log      *slog.Logger
	notifier Notifier
	metrics  Recorder
	now      func() time.Time

	// mu serializes mutations.
	mu sync.Mutex
}

// New creates a Manager. Empty options fall back to the default machine set
// and the reject policy.
func New(s store.Store, opts Options) *Manager {
	machines := opts.Machines
	if len(machines) == 0 {
		machines = config.DefaultMachines
	}
	m := &Manager{
		store:    s,
		machines: append([]string(nil), machines...),
		known:    make(map[string]bool, len(machines)),
		policy:   opts.ConflictPolicy,
		calc:     achievement.New(opts.ReferenceYear),
		log:      opts.Logger,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
	for _, name := range m.machines {
		m.known[name] = true
	}
	if m.policy == "" {
		m.policy = config.ConflictReject
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.metrics == nil {
		m.metrics = nopRecorder{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Machines returns the configured machine names in display order.
func (m *Manager) Machines() []string {
	return append([]string(nil), m.machines...)
}

// Create validates f and persists a new job. Achievement is computed when
// both start and finish are given, otherwise it is zero.
func (m *Manager) Create(ctx context.Context, f Fields) (*models.Job, error) {
	f = f.normalize()
	if err := m.validate(f); err != nil {
		return nil, err
	}

	j := &models.Job{JobFields: f.columns()}
	if f.Start != "" && f.Finish != "" {
		j.Achievement = m.calc.Calculate(f.Start, f.Finish, f.TargetHours)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Tx(ctx, func(tx store.Store) error {
		if j.Stage == models.StageCurrent {
			if err := m.claimCurrent(ctx, tx, j.Machine, 0); err != nil {
				return err
			}
		}
		return tx.InsertJob(ctx, j)
	})
	if err != nil {
		return nil, fmt.Errorf("job: create: %w", err)
	}

	m.metrics.JobCreated(j.Machine, j.Stage)
	m.log.Info("job created", "job_id", j.ID, "machine", j.Machine, "stage", j.Stage)
	return j, nil
}

// Get retrieves a job by id.
func (m *Manager) Get(ctx context.Context, id uint) (*models.Job, error) {
	j, err := m.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("job: get: %w", err)
	}
	return j, nil
}

// List returns live jobs matching filter.
func (m *Manager) List(ctx context.Context, filter store.JobFilter) ([]models.Job, error) {
	jobs, err := m.store.FindJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}
	return jobs, nil
}

// Replace overwrites every mutable field of job id with f. Achievement is
// recomputed only when both start and finish are present afterwards;
// otherwise the stored value is kept.
func (m *Manager) Replace(ctx context.Context, id uint, f Fields) (*models.Job, error) {
	f = f.normalize()
	if err := m.validate(f); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var updated *models.Job
	err := m.store.Tx(ctx, func(tx store.Store) error {
		if _, err := tx.GetJob(ctx, id); err != nil {
			return err
		}
		if f.Stage == models.StageCurrent {
			if err := m.claimCurrent(ctx, tx, f.Machine, id); err != nil {
				return err
			}
		}

		cols := map[string]any{
			"machine":      f.Machine,
			"stage":        f.Stage,
			"model":        f.Model,
			"part":         f.Part,
			"size":         f.Size,
			"start":        f.Start,
			"finish":       f.Finish,
			"target_hours": f.TargetHours,
			"operator":     f.Operator,
			"remark":       f.Remark,
		}
		if f.Start != "" && f.Finish != "" {
			cols["achievement"] = m.calc.Calculate(f.Start, f.Finish, f.TargetHours)
		}
		if err := tx.UpdateJob(ctx, id, cols); err != nil {
			return err
		}

		var err error
		updated, err = tx.GetJob(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("job: replace %d: %w", id, err)
	}

	m.log.Info("job replaced", "job_id", id, "machine", updated.Machine, "stage", updated.Stage)
	return updated, nil
}

// Finish archives job id and removes it from the live table. When the job
// was its machine's current job, the lowest-id queued job is promoted. All
// writes happen in one transaction.
func (m *Manager) Finish(ctx context.Context, id uint) (*FinishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := &FinishResult{}
	err := m.store.Tx(ctx, func(tx store.Store) error {
		j, err := tx.GetJob(ctx, id)
		if err != nil {
			return err
		}
		if j.Finish == "" {
			return fmt.Errorf("%w: finish time required before completing job %d", ErrPreconditionFailed, id)
		}

		score := m.calc.Calculate(j.Start, j.Finish, j.TargetHours)
		res.Archived = models.Archive(j, score, m.now())
		if err := tx.InsertArchived(ctx, res.Archived); err != nil {
			return err
		}
		if err := tx.DeleteJob(ctx, j.ID); err != nil {
			return err
		}

		if j.Stage != models.StageCurrent {
			return nil
		}
		res.Promoted, err = m.promote(ctx, tx, j.Machine)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("job: finish %d: %w", id, err)
	}

	a := res.Archived
	m.metrics.JobFinished(a.Machine, a.Achievement)
	attrs := []any{"job_id", id, "machine", a.Machine, "achievement", a.Achievement}
	if res.Promoted != nil {
		m.metrics.JobPromoted(a.Machine)
		attrs = append(attrs, "promoted_id", res.Promoted.ID)
	}
	m.log.Info("job finished", attrs...)

	if m.notifier != nil {
		if err := m.notifier.NotifyFinished(ctx, res); err != nil {
			m.log.Warn("finish notification failed", "job_id", id, "error", err)
		}
	}
	return res, nil
}

// promote moves the machine's lowest-id queued job to current. It does
// nothing when the queue is empty or another current job still exists.
func (m *Manager) promote(ctx context.Context, tx store.Store, machine string) (*models.Job, error) {
	remaining, err := tx.FindJobs(ctx, store.JobFilter{Machine: machine, Stage: models.StageCurrent, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		m.log.Warn("promotion skipped, machine still has a current job", "machine", machine, "job_id", remaining[0].ID)
		return nil, nil
	}

	queue, err := tx.FindJobs(ctx, store.JobFilter{Machine: machine, Stage: models.StageNext, Order: store.OrderIDAsc, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, nil
	}
	next := queue[0]
	if err := tx.UpdateJob(ctx, next.ID, map[string]any{"stage": models.StageCurrent}); err != nil {
		return nil, fmt.Errorf("promote job %d: %w", next.ID, err)
	}
	return tx.GetJob(ctx, next.ID)
}

// claimCurrent makes room for a new current job on machine according to the
// conflict policy. excludeID is the job being edited, if any.
func (m *Manager) claimCurrent(ctx context.Context, tx store.Store, machine string, excludeID uint) error {
	holders, err := tx.FindJobs(ctx, store.JobFilter{Machine: machine, Stage: models.StageCurrent, ExcludeID: excludeID})
	if err != nil {
		return err
	}
	if len(holders) == 0 {
		return nil
	}
	if m.policy != config.ConflictDemote {
		return fmt.Errorf("%w: %s is running job %d", ErrCurrentConflict, machine, holders[0].ID)
	}
	for _, h := range holders {
		if err := tx.UpdateJob(ctx, h.ID, map[string]any{"stage": models.StageNext}); err != nil {
			return fmt.Errorf("demote job %d: %w", h.ID, err)
		}
		m.log.Info("job demoted to queue", "job_id", h.ID, "machine", machine)
	}
	return nil
}

func (m *Manager) validate(f Fields) error {
	checks := []struct {
		name  string
		value string
	}{
		{"machine", f.Machine},
		{"stage", string(f.Stage)},
		{"model", f.Model},
		{"part", f.Part},
		{"size", f.Size},
		{"target_hours", f.TargetHours},
		{"operator", f.Operator},
	}
	for _, c := range checks {
		if c.value == "" {
			return required(c.name)
		}
	}
	if !m.known[f.Machine] {
		return &ValidationError{Field: "machine", Message: fmt.Sprintf("%q is not a configured machine", f.Machine)}
	}
	if !f.Stage.Valid() {
		return &ValidationError{Field: "stage", Message: fmt.Sprintf("%q must be current or next", f.Stage)}
	}
	return nil
}

func (f Fields) normalize() Fields {
	f.Machine = strings.TrimSpace(f.Machine)
	f.Stage = models.Stage(strings.TrimSpace(string(f.Stage)))
	f.Model = strings.TrimSpace(f.Model)
	f.Part = strings.TrimSpace(f.Part)
	f.Size = strings.TrimSpace(f.Size)
	f.Start = strings.TrimSpace(f.Start)
	f.Finish = strings.TrimSpace(f.Finish)
	f.TargetHours = strings.TrimSpace(f.TargetHours)
	f.Operator = strings.TrimSpace(f.Operator)
	return f
}

func (f Fields) columns() models.JobFields {
	return models.JobFields{
		Machine:     f.Machine,
		Stage:       f.Stage,
		Model:       f.Model,
		Part:        f.Part,
		Size:        f.Size,
		Start:       f.Start,
		Finish:      f.Finish,
		TargetHours: f.TargetHours,
		Operator:    f.Operator,
		Remark:      f.Remark,
	}
}

// FieldsOf returns the client fields of an existing job, the starting point
// for a full replace.
func FieldsOf(j *models.Job) Fields {
	return Fields{
		Machine:     j.Machine,
		Stage:       j.Stage,
		Model:       j.Model,
		Part:        j.Part,
		Size:        j.Size,
		Start:       j.Start,
		Finish:      j.Finish,
		TargetHours: j.TargetHours,
		Operator:    j.Operator,
		Remark:      j.Remark,
	}
}

// IsNotFound reports whether err means the job does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type nopRecorder struct{}

func (nopRecorder) JobCreated(string, models.Stage) {}
func (nopRecorder) JobFinished(string, float64)     {}
func (nopRecorder) JobPromoted(string)              {}
func (nopRecorder) ArchiveCleared(int64)            {}
