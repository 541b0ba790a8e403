// Package store defines the record-store contract for live and archived
// jobs and provides its gorm implementation.
package store

import (
	"context"
	"errors"

	"github.com/zulandar/spindle/internal/models"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("store: record not found")

// Order selects the sort applied to job queries. Every FindJobs result is
// sorted; the zero value is ascending id.
type Order int

const (
	// OrderIDAsc sorts by ascending id, the queue and promotion order.
	OrderIDAsc Order = iota
	// OrderIDDesc sorts by descending id, newest first in job listings.
	OrderIDDesc
)

// ParseOrder maps "asc" or "desc" to an Order. An empty string is ascending.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "", "asc":
		return OrderIDAsc, true
	case "desc":
		return OrderIDDesc, true
	default:
		return OrderIDAsc, false
	}
}

// JobFilter narrows a job query. Zero fields match everything.
type JobFilter struct {
	Machine string
	Stage   models.Stage
	// ExcludeID skips one job, used when checking the job being edited.
	ExcludeID uint
	Order     Order
	// Limit caps the result size. Zero means no limit.
	Limit int
}

// Store persists live jobs and their archive.
type Store interface {
	// InsertJob persists a new job and assigns its id.
	InsertJob(ctx context.Context, j *models.Job) error

	// GetJob retrieves a job by id.
	GetJob(ctx context.Context, id uint) (*models.Job, error)

	// UpdateJob writes the given columns to an existing job. Zero values are
	// written as-is.
	UpdateJob(ctx context.Context, id uint, fields map[string]any) error

	// DeleteJob removes a job by id.
	DeleteJob(ctx context.Context, id uint) error

	// FindJobs returns the jobs matching f in the requested order.
	FindJobs(ctx context.Context, f JobFilter) ([]models.Job, error)

	// ClearJobs removes every live job and returns how many were deleted.
	ClearJobs(ctx context.Context) (int64, error)

	// InsertArchived persists an archive snapshot.
	InsertArchived(ctx context.Context, a *models.ArchivedJob) error

	// ListArchived returns every archived job by ascending id.
	ListArchived(ctx context.Context) ([]models.ArchivedJob, error)

	// ClearArchived removes every archived job and returns how many were deleted.
	ClearArchived(ctx context.Context) (int64, error)

	// Tx runs fn inside a transaction. A non-nil error from fn rolls back
	// every write made through the Store passed to it.
	Tx(ctx context.Context, fn func(Store) error) error
}
