package models

import "time"

// ArchivedJob is the immutable snapshot written when a job is finished.
type ArchivedJob struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceJobID uint `gorm:"index" json:"source_job_id"`
	JobFields
	ArchivedAt time.Time `gorm:"index" json:"archived_at"`
}

// Archive builds the snapshot of j stamped at now. The caller supplies the
// final achievement.
func Archive(j *Job, achievement float64, now time.Time) *ArchivedJob {
	fields := j.JobFields
	fields.Achievement = achievement
	return &ArchivedJob{
		SourceJobID: j.ID,
		JobFields:   fields,
		ArchivedAt:  now,
	}
}
