package jobs

import "time"

const (
	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// TaskOCR is the only task type: extract text then categorize.
const TaskOCR = "OCR"

// Job is one processing attempt for a document version. Status moves
// PENDING -> RUNNING -> SUCCESS|FAILED and never back.
type Job struct {
	ID         string
	DocumentID string
	VersionID  string
	// OwnerID is the owner of DocumentID.
	OwnerID    string
	Status     string
	TaskType   string
	Message    *string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Terminal reports whether the job has finished.
func (j Job) Terminal() bool {
	return j.Status == StatusSuccess || j.Status == StatusFailed
}
