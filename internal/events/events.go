package events

import (
	"context"
	"errors"
	"time"

	"jobboard/internal/domain/application"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSubmitted          Type = "application.submitted"
	TypeWithdrawn          Type = "application.withdrawn"
	TypeStatusChanged      Type = "application.status_changed"
	TypeInterviewScheduled Type = "application.interview_scheduled"
)

// ApplicationEvent is emitted after a lifecycle change has been committed. It
// carries no recruiter notes or rating, so it is safe to deliver to the seeker.
type ApplicationEvent struct {
	Type          Type               `json:"type"`
	ApplicationID uuid.UUID          `json:"applicationId"`
	JobID         uuid.UUID          `json:"jobId"`
	SeekerID      uuid.UUID          `json:"seekerId"`
	RecruiterID   uuid.UUID          `json:"recruiterId"`
	Status        application.Status `json:"status"`
	ActorID       uuid.UUID          `json:"actorId"`
	Remarks       string             `json:"remarks,omitempty"`
	OccurredAt    time.Time          `json:"occurredAt"`
}

// Recipients are the two parties of the application.
func (e ApplicationEvent) Recipients() []uuid.UUID {
	return []uuid.UUID{e.SeekerID, e.RecruiterID}
}

// FromTransition builds an event from an application as persisted after a change.
func FromTransition(t Type, a application.Application, actorID uuid.UUID) ApplicationEvent {
	e := ApplicationEvent{
		Type:          t,
		ApplicationID: a.ID,
		JobID:         a.JobID,
		SeekerID:      a.SeekerID,
		RecruiterID:   a.RecruiterID,
		Status:        a.Status,
		ActorID:       actorID,
		OccurredAt:    a.UpdatedAt,
	}
	if last, ok := a.LastEntry(); ok {
		e.Remarks = last.Remarks
		e.OccurredAt = last.ChangedAt
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e ApplicationEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e ApplicationEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, ApplicationEvent) error { return nil }
