package application

import (
	"time"

	"jobboard/internal/domain/identity"

	"github.com/google/uuid"
)

type Scope int

const (
	// ScopeDetail is a single application read.
	ScopeDetail Scope = iota
	// ScopeListing is a row of a paginated list; the status history is omitted.
	ScopeListing
)

// Projection is what leaves the engine. Nil RecruiterNotes/Rating and a nil
// StatusHistory mean the field was stripped for the viewer.
type Projection struct {
	ID               uuid.UUID
	JobID            uuid.UUID
	SeekerID         uuid.UUID
	RecruiterID      uuid.UUID
	CompanyID        uuid.UUID
	Resume           Resume
	CoverLetter      string
	Status           Status
	StatusHistory    []StatusHistoryEntry
	InterviewDetails *InterviewDetails
	RecruiterNotes   *string
	Rating           *int
	AppliedAt        time.Time
	UpdatedAt        time.Time
}

// ProjectFor is the only way an Application is turned into a response. Seekers
// never see recruiter notes or rating; any role other than recruiter and admin is
// treated as a seeker.
func ProjectFor(a Application, viewer identity.Role, scope Scope) Projection {
	p := Projection{
		ID:          a.ID,
		JobID:       a.JobID,
		SeekerID:    a.SeekerID,
		RecruiterID: a.RecruiterID,
		CompanyID:   a.CompanyID,
		Resume:      a.Resume,
		CoverLetter: a.CoverLetter,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.InterviewDetails != nil {
		d := *a.InterviewDetails
		p.InterviewDetails = &d
	}
	if scope == ScopeDetail {
		p.StatusHistory = append([]StatusHistoryEntry(nil), a.StatusHistory...)
	}

	switch viewer {
	case identity.RoleRecruiter, identity.RoleAdmin:
		notes := a.RecruiterNotes
		p.RecruiterNotes = &notes
		if a.Rating != nil {
			r := *a.Rating
			p.Rating = &r
		}
	}
	return p
}

// AppliedSummary is the lightweight projection behind "already applied" checks.
type AppliedSummary struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	AppliedAt time.Time `json:"appliedAt"`
}

func Summarize(a Application) AppliedSummary {
	return AppliedSummary{ID: a.ID, Status: a.Status, AppliedAt: a.AppliedAt}
}
