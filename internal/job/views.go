package job

import (
	"context"
	"fmt"

	"github.com/zulandar/spindle/internal/models"
	"github.com/zulandar/spindle/internal/store"
)

// Direction is a queue navigation step. Values other than DirNext and
// DirPrev keep the position unchanged.
type Direction string

const (
	DirNext Direction = "next"
	DirPrev Direction = "prev"
)

// Navigate pages cyclically through machine's queued jobs by ascending id.
// currentID is the caller's position; zero or an id not in the queue starts
// from the head. It returns nil when the queue is empty.
func (m *Manager) Navigate(ctx context.Context, machine string, dir Direction, currentID uint) (*models.Job, error) {
	if !m.known[machine] {
		return nil, &ValidationError{Field: "machine", Message: fmt.Sprintf("%q is not a configured machine", machine)}
	}

	queue, err := m.store.FindJobs(ctx, store.JobFilter{Machine: machine, Stage: models.StageNext, Order: store.OrderIDAsc})
	if err != nil {
		return nil, fmt.Errorf("job: navigate %s: %w", machine, err)
	}
	if len(queue) == 0 {
		return nil, nil
	}

	idx := 0
	for i, j := range queue {
		if currentID != 0 && j.ID == currentID {
			idx = i
			break
		}
	}
	switch dir {
	case DirNext:
		idx = (idx + 1) % len(queue)
	case DirPrev:
		idx = (idx - 1 + len(queue)) % len(queue)
	}
	return &queue[idx], nil
}

// MachineBoard is one machine's dashboard entry.
type MachineBoard struct {
	Current *models.Job  `json:"current"`
	Next    []models.Job `json:"next_jobs"`
	Total   int          `json:"total_jobs"`
}

// Board maps each configured machine to its dashboard entry.
type Board map[string]MachineBoard

// Dashboard reports every configured machine's current job and queue.
// Queues are ordered by ascending id. If a machine somehow holds several
// current jobs, the lowest id is shown.
func (m *Manager) Dashboard(ctx context.Context) (Board, error) {
	jobs, err := m.store.FindJobs(ctx, store.JobFilter{Order: store.OrderIDAsc})
	if err != nil {
		return nil, fmt.Errorf("job: dashboard: %w", err)
	}

	board := make(Board, len(m.machines))
	for _, name := range m.machines {
		board[name] = MachineBoard{Next: []models.Job{}}
	}
	for i := range jobs {
		j := jobs[i]
		entry, ok := board[j.Machine]
		if !ok {
			continue
		}
		switch j.Stage {
		case models.StageCurrent:
			if entry.Current == nil {
				entry.Current = &j
			}
		case models.StageNext:
			entry.Next = append(entry.Next, j)
		}
		board[j.Machine] = entry
	}
	for name, entry := range board {
		entry.Total = len(entry.Next)
		if entry.Current != nil {
			entry.Total++
		}
		board[name] = entry
	}
	return board, nil
}

// ListArchive returns every archived job by ascending id.
func (m *Manager) ListArchive(ctx context.Context) ([]models.ArchivedJob, error) {
	rows, err := m.store.ListArchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("job: list archive: %w", err)
	}
	return rows, nil
}

// ClearArchive deletes every archived job and returns how many were removed.
func (m *Manager) ClearArchive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.store.ClearArchived(ctx)
	if err != nil {
		return 0, fmt.Errorf("job: clear archive: %w", err)
	}
	m.metrics.ArchiveCleared(n)
	m.log.Info("archive cleared", "deleted", n)
	return n, nil
}
