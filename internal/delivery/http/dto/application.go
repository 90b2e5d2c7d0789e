package dto

import (
	"time"

	"jobboard/internal/domain/application"

	"github.com/google/uuid"
)

type ResumeRequest struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
}

type SubmitApplicationRequest struct {
	Job         string        `json:"job"`
	Resume      ResumeRequest `json:"resume"`
	CoverLetter string        `json:"coverLetter"`
}

type ChangeStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

type RecruiterNotesRequest struct {
	RecruiterNotes string `json:"recruiterNotes"`
}

type RatingRequest struct {
	Rating *int `json:"rating"`
}

// ScheduleInterviewRequest.Date accepts RFC 3339 or a bare YYYY-MM-DD (UTC midnight).
type ScheduleInterviewRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	MeetingLink string `json:"meetingLink"`
	Notes       string `json:"notes"`
}

type ResumeResponse struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName,omitempty"`
}

type StatusHistoryResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy uuid.UUID `json:"changedBy"`
	Remarks   string    `json:"remarks"`
}

type InterviewDetailsResponse struct {
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location,omitempty"`
	Type        string    `json:"type"`
	MeetingLink string    `json:"meetingLink,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// ApplicationResponse mirrors a projection. Fields stripped for the viewer are
// absent from the JSON, not null.
type ApplicationResponse struct {
	ID               uuid.UUID                 `json:"id"`
	JobID            uuid.UUID                 `json:"jobId"`
	SeekerID         uuid.UUID                 `json:"seekerId"`
	RecruiterID      uuid.UUID                 `json:"recruiterId"`
	CompanyID        uuid.UUID                 `json:"companyId"`
	Resume           ResumeResponse            `json:"resume"`
	CoverLetter      string                    `json:"coverLetter,omitempty"`
	Status           string                    `json:"status"`
	StatusHistory    []StatusHistoryResponse   `json:"statusHistory,omitempty"`
	InterviewDetails *InterviewDetailsResponse `json:"interviewDetails,omitempty"`
	RecruiterNotes   *string                   `json:"recruiterNotes,omitempty"`
	Rating           *int                      `json:"rating,omitempty"`
	AppliedAt        time.Time                 `json:"appliedAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

func NewApplicationResponse(p application.Projection) ApplicationResponse {
	out := ApplicationResponse{
		ID:          p.ID,
		JobID:       p.JobID,
		SeekerID:    p.SeekerID,
		RecruiterID: p.RecruiterID,
		CompanyID:   p.CompanyID,
		Resume: ResumeResponse{
			URL:          p.Resume.URL,
			OriginalName: p.Resume.OriginalName,
		},
		CoverLetter:    p.CoverLetter,
		Status:         string(p.Status),
		RecruiterNotes: p.RecruiterNotes,
		Rating:         p.Rating,
		AppliedAt:      p.AppliedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.StatusHistory != nil {
		out.StatusHistory = make([]StatusHistoryResponse, 0, len(p.StatusHistory))
		for _, e := range p.StatusHistory {
			out.StatusHistory = append(out.StatusHistory, StatusHistoryResponse{
				Status:    string(e.Status),
				ChangedAt: e.ChangedAt,
				ChangedBy: e.ChangedBy,
				Remarks:   e.Remarks,
			})
		}
	}
	if p.InterviewDetails != nil {
		d := NewInterviewDetailsResponse(*p.InterviewDetails)
		out.InterviewDetails = &d
	}
	return out
}

func NewInterviewDetailsResponse(d application.InterviewDetails) InterviewDetailsResponse {
	return InterviewDetailsResponse{
		Date:        d.Date,
		Time:        d.Time,
		Location:    d.Location,
		Type:        string(d.Type),
		MeetingLink: d.MeetingLink,
		Notes:       d.Notes,
	}
}

func NewApplicationResponses(items []application.Projection) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(items))
	for _, p := range items {
		out = append(out, NewApplicationResponse(p))
	}
	return out
}

type StatusResponse struct {
	Status string `json:"status"`
}

type RecruiterNotesResponse struct {
	RecruiterNotes string `json:"recruiterNotes"`
}

type RatingResponse struct {
	Rating int `json:"rating"`
}

type InterviewResponse struct {
	Status           string                   `json:"status"`
	InterviewDetails InterviewDetailsResponse `json:"interviewDetails"`
}

type AppliedApplicationResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"appliedAt"`
}

type CheckAppliedResponse struct {
	HasApplied  bool                        `json:"hasApplied"`
	Application *AppliedApplicationResponse `json:"application"`
}

type ReconcileResponse struct {
	JobID             uuid.UUID `json:"jobId"`
	TotalApplications int       `json:"totalApplications"`
}
