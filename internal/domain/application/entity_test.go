package application

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew_StartsWithAppliedEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seeker := uuid.New()
	owner := Snapshot{JobID: uuid.New(), RecruiterID: uuid.New(), CompanyID: uuid.New()}

	a := New(uuid.New(), seeker, owner, SubmitInput{JobID: owner.JobID, Resume: Resume{URL: "https://cdn.example.com/cv.pdf"}}, now)

	if a.Status != StatusApplied {
		t.Fatalf("expected status applied, got %s", a.Status)
	}
	if len(a.StatusHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(a.StatusHistory))
	}
	e := a.StatusHistory[0]
	if e.Status != StatusApplied || e.ChangedBy != seeker || e.Remarks != RemarkSubmitted {
		t.Fatalf("unexpected first entry: %+v", e)
	}
	if a.RecruiterID != owner.RecruiterID || a.CompanyID != owner.CompanyID {
		t.Fatalf("expected owner snapshot to be copied")
	}
}

func TestAppend_LastEntryMatchesStatus(t *testing.T) {
	now := time.Now().UTC()
	a := New(uuid.New(), uuid.New(), Snapshot{JobID: uuid.New()}, SubmitInput{}, now)

	a.Append(StatusHistoryEntry{Status: StatusShortlisted, ChangedAt: now.Add(time.Minute)})

	last, ok := a.LastEntry()
	if !ok {
		t.Fatalf("expected last entry")
	}
	if last.Status != a.Status {
		t.Fatalf("last entry %s does not match status %s", last.Status, a.Status)
	}
	if len(a.StatusHistory) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(a.StatusHistory))
	}
}

func TestCanWithdraw(t *testing.T) {
	cases := map[Status]bool{
		StatusApplied:     true,
		StatusReviewed:    true,
		StatusShortlisted: true,
		StatusInterview:   true,
		StatusOffered:     true,
		StatusHired:       false,
		StatusRejected:    false,
		StatusWithdrawn:   false,
	}
	for st, want := range cases {
		if got := CanWithdraw(st); got != want {
			t.Fatalf("CanWithdraw(%s)=%v, want %v", st, got, want)
		}
	}
}

func TestCanRecruiterTransition_OnlyWithdrawnIsFrozen(t *testing.T) {
	for _, st := range []Status{StatusApplied, StatusOffered, StatusHired, StatusRejected} {
		if !CanRecruiterTransition(st) {
			t.Fatalf("expected recruiter transition allowed from %s", st)
		}
	}
	if CanRecruiterTransition(StatusWithdrawn) {
		t.Fatalf("expected withdrawn to be frozen")
	}
}

func TestParseStatus(t *testing.T) {
	if st, ok := ParseStatus("  Shortlisted "); !ok || st != StatusShortlisted {
		t.Fatalf("expected shortlisted, got %q ok=%v", st, ok)
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Fatalf("expected archived to be rejected")
	}
	if StatusWithdrawn.RecruiterSettable() {
		t.Fatalf("withdrawn must not be recruiter settable")
	}
}

func TestInterviewRemark(t *testing.T) {
	d := InterviewDetails{Date: time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC), Type: InterviewVideo}
	want := "Interview scheduled on Thu Oct 22 2026 via video"
	if got := InterviewRemark(d); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
