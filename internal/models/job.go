package models

import "time"

// Stage is a live job's position on its machine.
type Stage string

const (
	StageCurrent Stage = "current"
	StageNext    Stage = "next"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s == StageCurrent || s == StageNext
}

// JobFields is the column set shared by live and archived jobs.
type JobFields struct {
	Machine     string  `gorm:"size:50;not null;index" json:"machine"`
	Stage       Stage   `gorm:"size:20;not null;index" json:"stage"`
	Model       string  `gorm:"size:100;not null" json:"model"`
	Part        string  `gorm:"size:100;not null" json:"part"`
	Size        string  `gorm:"size:50;not null" json:"size"`
	Start       string  `gorm:"size:20" json:"start,omitempty"`  // DD/MM - HH:MM
	Finish      string  `gorm:"size:20" json:"finish,omitempty"` // DD/MM - HH:MM
	TargetHours string  `gorm:"size:10;not null" json:"target_hours"`
	Operator    string  `gorm:"size:50;not null" json:"operator"`
	Achievement float64 `gorm:"default:0" json:"achievement"`
	Remark      string  `gorm:"type:text" json:"remark,omitempty"`
}

// Job is a live work item, either running on its machine or queued behind it.
type Job struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
	JobFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
