package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/models"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// snapshotTimeout bounds one scheduled snapshot.
const snapshotTimeout = time.Minute

// ArchiveSource lists archived jobs.
type ArchiveSource interface {
	ListArchive(ctx context.Context) ([]models.ArchivedJob, error)
}

// Scheduler writes the archive to a timestamped workbook on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	src  ArchiveSource
	dir  string
	log  *slog.Logger
	now  func() time.Time
}

// NewScheduler validates expr and prepares a scheduler writing into dir.
// Call Start to begin firing.
func NewScheduler(expr, dir string, src ArchiveSource, log *slog.Logger) (*Scheduler, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("export: parse schedule %q: %w", expr, err)
	}
	if log == nil {
		log = logger.Discard()
	}
	s := &Scheduler{
		cron: cron.New(cron.WithParser(cronParser)),
		src:  src,
		dir:  dir,
		log:  log,
		now:  time.Now,
	}
	s.cron.Schedule(sched, cron.FuncJob(s.run))
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("archive snapshots scheduled", "dir", s.dir, "next", s.Next())
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the next fire time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	path, err := s.Snapshot(ctx)
	if err != nil {
		s.log.Error("archive snapshot failed", "error", err)
		return
	}
	s.log.Info("archive snapshot written", "path", path)
}

// Snapshot writes the current archive to a new file in the snapshot
// directory and returns its path.
func (s *Scheduler) Snapshot(ctx context.Context) (string, error) {
	rows, err := s.src.ListArchive(ctx)
	if err != nil {
		return "", fmt.Errorf("export: snapshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, "archive-"+s.now().Format("20060102-150405")+".xlsx")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: snapshot: %w", err)
	}
	if err := WriteArchive(f, rows); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: snapshot: %w", err)
	}
	return path, nil
}
