package application

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxCoverLetterLength = 3000
	MaxRemarksLength     = 500
	MaxNotesLength       = 2000
	MinRating            = 1
	MaxRating            = 5
)

var ErrValidation = errors.New("validation failed")

type FieldError struct {
	Field   string
	Message string
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

func ValidateSubmit(in SubmitInput) error {
	v := &ValidationError{}
	if in.JobID == uuid.Nil {
		v.add("job", "Invalid job ID")
	}
	if !isHTTPURL(in.Resume.URL) {
		v.add("resume.url", "Invalid resume URL")
	}
	if utf8.RuneCountInString(in.CoverLetter) > MaxCoverLetterLength {
		v.add("coverLetter", "Cover letter must be at most 3000 characters")
	}
	return v.err()
}

// ValidateStatusChange parses the requested status and checks the remarks bound.
func ValidateStatusChange(status, remarks string) (Status, error) {
	v := &ValidationError{}
	st, ok := ParseStatus(status)
	if !ok || !st.RecruiterSettable() {
		v.add("status", "Invalid status")
	}
	if utf8.RuneCountInString(remarks) > MaxRemarksLength {
		v.add("remarks", "Remarks must be at most 500 characters")
	}
	if err := v.err(); err != nil {
		return "", err
	}
	return st, nil
}

func ValidateInterview(d InterviewDetails, now time.Time) error {
	v := &ValidationError{}
	if d.Date.IsZero() {
		v.add("date", "Interview date is required")
	} else if !d.Date.After(now) {
		v.add("date", "Interview date must be in the future")
	}
	if strings.TrimSpace(d.Time) == "" {
		v.add("time", "Time is required")
	}
	if !d.Type.Valid() {
		v.add("type", "Interview type must be in-person, phone or video")
	}
	if d.MeetingLink != "" && !isHTTPURL(d.MeetingLink) {
		v.add("meetingLink", "Invalid meeting link")
	} else if d.Type == InterviewVideo && d.MeetingLink == "" {
		v.add("meetingLink", "Meeting link is required for video interviews")
	}
	return v.err()
}

func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return NewValidationError("recruiterNotes", "Notes must be at most 2000 characters")
	}
	return nil
}

func ValidateRating(rating *int) error {
	if rating == nil {
		return NewValidationError("rating", "Rating is required")
	}
	if *rating < MinRating {
		return NewValidationError("rating", "Rating must be at least 1")
	}
	if *rating > MaxRating {
		return NewValidationError("rating", "Rating must be at most 5")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
