package models

import (
	"time"

	"gorm.io/gorm"
)

// ProcessingStatus represents the state of a transcoding job
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusQueued     ProcessingStatus = "queued"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// statusRank orders the non-failure states for monotonicity checks
var statusRank = map[ProcessingStatus]int{
	StatusPending:    0,
	StatusQueued:     1,
	StatusProcessing: 2,
	StatusCompleted:  3,
}

// IsTerminal returns true if the status is a terminal state
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid returns true if the status is a known state
func (s ProcessingStatus) IsValid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Progress maps a status to a coarse display percentage. The mapping is a
// discrete bucket, not byte-level progress.
func (s ProcessingStatus) Progress() int {
	switch s {
	case StatusPending:
		return 10
	case StatusQueued:
		return 25
	case StatusProcessing:
		return 60
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

// CanTransitionTo reports whether moving to next is a legal transition.
// Status is monotonically non-decreasing, except that a failed job may be
// retried back to queued.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == StatusFailed {
		return next == StatusQueued
	}
	if next == StatusFailed {
		return !s.IsTerminal()
	}
	return statusRank[next] >= statusRank[s]
}

// ProcessingJob represents a transcoding job for a track. The transcoder
// itself is an external collaborator; the engine only records and reports
// its state.
type ProcessingJob struct {
	gorm.Model
	TrackID     uint             `json:"track_id" gorm:"not null;index"`
	Status      ProcessingStatus `json:"status" gorm:"default:'pending';index"`
	Progress    int              `json:"progress" gorm:"default:0"` // 0-100
	StartedAt   *time.Time       `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Error       string           `json:"error,omitempty"`
	RetryCount  int              `json:"retry_count" gorm:"default:0"`
	WorkerID    string           `json:"worker_id,omitempty"`
}

// TableName specifies the table name for GORM
func (ProcessingJob) TableName() string {
	return "processing_jobs"
}
