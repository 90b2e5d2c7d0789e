package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusApplied     Status = "applied"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusInterview   Status = "interview"
	StatusOffered     Status = "offered"
	StatusHired       Status = "hired"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
)

const (
	RemarkSubmitted = "Application submitted"
	RemarkWithdrawn = "Application withdrawn by seeker"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", false
	}
	return st, true
}

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusReviewed, StatusShortlisted, StatusInterview,
		StatusOffered, StatusHired, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

// RecruiterSettable reports whether a recruiter may move an application into s.
// Withdrawal belongs to the seeker.
func (s Status) RecruiterSettable() bool {
	return s.Valid() && s != StatusWithdrawn
}

// WithdrawBlockedStatuses lists the statuses from which a seeker can no longer withdraw.
func WithdrawBlockedStatuses() []Status {
	return []Status{StatusHired, StatusRejected, StatusWithdrawn}
}

// RecruiterBlockedStatuses lists the statuses that freeze an application against
// recruiter transitions. Any other status may move to any recruiter-settable status.
func RecruiterBlockedStatuses() []Status {
	return []Status{StatusWithdrawn}
}

func CanWithdraw(s Status) bool {
	return !blocked(s, WithdrawBlockedStatuses())
}

func CanRecruiterTransition(s Status) bool {
	return !blocked(s, RecruiterBlockedStatuses())
}

func blocked(s Status, list []Status) bool {
	for _, b := range list {
		if s == b {
			return true
		}
	}
	return false
}

type InterviewType string

const (
	InterviewInPerson InterviewType = "in-person"
	InterviewPhone    InterviewType = "phone"
	InterviewVideo    InterviewType = "video"
)

func (t InterviewType) Valid() bool {
	return t == InterviewInPerson || t == InterviewPhone || t == InterviewVideo
}

type Resume struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName,omitempty"`
}

type StatusHistoryEntry struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy uuid.UUID `json:"changedBy"`
	Remarks   string    `json:"remarks"`
}

type InterviewDetails struct {
	Date        time.Time     `json:"date"`
	Time        string        `json:"time"`
	Location    string        `json:"location,omitempty"`
	Type        InterviewType `json:"type"`
	MeetingLink string        `json:"meetingLink,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// Application is one seeker's candidacy for one job. RecruiterID and CompanyID are
// copied from the job when the application is created and never re-derived.
type Application struct {
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
	RecruiterNotes   string
	Rating           *int
	AppliedAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type SubmitInput struct {
	JobID       uuid.UUID
	Resume      Resume
	CoverLetter string
}

type Snapshot struct {
	JobID       uuid.UUID
	RecruiterID uuid.UUID
	CompanyID   uuid.UUID
}

// New builds a freshly submitted application with its first history entry.
func New(id uuid.UUID, seekerID uuid.UUID, owner Snapshot, in SubmitInput, now time.Time) Application {
	return Application{
		ID:          id,
		JobID:       owner.JobID,
		SeekerID:    seekerID,
		RecruiterID: owner.RecruiterID,
		CompanyID:   owner.CompanyID,
		Resume:      in.Resume,
		CoverLetter: in.CoverLetter,
		Status:      StatusApplied,
		StatusHistory: []StatusHistoryEntry{{
			Status:    StatusApplied,
			ChangedAt: now,
			ChangedBy: seekerID,
			Remarks:   RemarkSubmitted,
		}},
		AppliedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records a transition in memory. Persistence appends through the
// repository's atomic primitive, never by writing this slice back.
func (a *Application) Append(e StatusHistoryEntry) {
	a.Status = e.Status
	a.StatusHistory = append(a.StatusHistory, e)
	a.UpdatedAt = e.ChangedAt
}

func (a Application) LastEntry() (StatusHistoryEntry, bool) {
	if len(a.StatusHistory) == 0 {
		return StatusHistoryEntry{}, false
	}
	return a.StatusHistory[len(a.StatusHistory)-1], true
}

func InterviewRemark(d InterviewDetails) string {
	return fmt.Sprintf("Interview scheduled on %s via %s", d.Date.Format("Mon Jan 02 2006"), d.Type)
}
