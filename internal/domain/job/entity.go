package job

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusClosed   Status = "closed"
	StatusRejected Status = "rejected"
)

// Job is the slice of a job posting the application engine reads. The posting
// itself is owned by the job directory.
type Job struct {
	ID                  uuid.UUID
	RecruiterID         uuid.UUID
	CompanyID           uuid.UUID
	Title               string
	Status              Status
	ApplicationDeadline time.Time
	TotalApplications   int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AcceptsApplications reports whether the job is active and its deadline has not passed.
func (j Job) AcceptsApplications(now time.Time) bool {
	return j.Status == StatusActive && !j.ApplicationDeadline.Before(now)
}
