package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/spindle/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on a gorm connection or transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGorm wraps db. The connection must already be migrated.
func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InsertJob(ctx context.Context, j *models.Job) error {
	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		return fmt.Errorf("store: insert job: %w", err)
	}
	return nil
}

func (s *GormStore) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var j models.Job
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: job %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get job %d: %w", id, err)
	}
	return &j, nil
}

func (s *GormStore) UpdateJob(ctx context.Context, id uint, fields map[string]any) error {
	result := s.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("store: update job %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: job %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) DeleteJob(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Job{})
	if result.Error != nil {
		return fmt.Errorf("store: delete job %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: job %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) FindJobs(ctx context.Context, f JobFilter) ([]models.Job, error) {
	q := s.db.WithContext(ctx).Model(&models.Job{})
	if f.Machine != "" {
		q = q.Where("machine = ?", f.Machine)
	}
	if f.Stage != "" {
		q = q.Where("stage = ?", f.Stage)
	}
	if f.ExcludeID != 0 {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	switch f.Order {
	case OrderIDDesc:
		q = q.Order("id DESC")
	default:
		q = q.Order("id ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("store: find jobs: %w", err)
	}
	return jobs, nil
}

func (s *GormStore) ClearJobs(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Job{})
	if result.Error != nil {
		return 0, fmt.Errorf("store: clear jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) InsertArchived(ctx context.Context, a *models.ArchivedJob) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("store: insert archived job: %w", err)
	}
	return nil
}

func (s *GormStore) ListArchived(ctx context.Context) ([]models.ArchivedJob, error) {
	var rows []models.ArchivedJob
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list archive: %w", err)
	}
	return rows, nil
}

func (s *GormStore) ClearArchived(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.ArchivedJob{})
	if result.Error != nil {
		return 0, fmt.Errorf("store: clear archive: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) Tx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
