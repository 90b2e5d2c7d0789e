package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard/internal/domain/application"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	got []ApplicationEvent
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, e ApplicationEvent) error {
	p.got = append(p.got, e)
	return p.err
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingPublisher{err: boom}
	b := &recordingPublisher{}

	err := Multi{a, nil, b}.Publish(context.Background(), ApplicationEvent{Type: TypeSubmitted})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("expected both publishers called, got a=%d b=%d", len(a.got), len(b.got))
	}
}

func TestFromTransition_UsesLastHistoryEntry(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	seeker := uuid.New()
	recruiter := uuid.New()
	a := application.New(uuid.New(), seeker, application.Snapshot{JobID: uuid.New(), RecruiterID: recruiter, CompanyID: uuid.New()},
		application.SubmitInput{Resume: application.Resume{URL: "https://cdn.example.com/cv.pdf"}}, now)
	a.Append(application.StatusHistoryEntry{Status: application.StatusShortlisted, ChangedAt: now.Add(time.Hour), ChangedBy: recruiter, Remarks: "strong resume"})

	e := FromTransition(TypeStatusChanged, a, recruiter)
	if e.Status != application.StatusShortlisted || e.Remarks != "strong resume" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if !e.OccurredAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected occurredAt from last entry, got %s", e.OccurredAt)
	}
	rcpt := e.Recipients()
	if len(rcpt) != 2 || rcpt[0] != seeker || rcpt[1] != recruiter {
		t.Fatalf("unexpected recipients: %v", rcpt)
	}
}
