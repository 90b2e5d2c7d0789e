// Package memstore is an in-memory repository.Store with the same constraints
// as the Postgres schema: unique (job, seeker), non-negative applicant counter,
// conditional transitions and all-or-nothing transactions.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobboard/internal/domain/application"
	"jobboard/internal/domain/job"
	"jobboard/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	jobs         map[uuid.UUID]job.Job
	applications map[uuid.UUID]application.Application
}

func (s *state) clone() *state {
	out := &state{
		jobs:         make(map[uuid.UUID]job.Job, len(s.jobs)),
		applications: make(map[uuid.UUID]application.Application, len(s.applications)),
	}
	for k, v := range s.jobs {
		out.jobs[k] = v
	}
	for k, v := range s.applications {
		out.applications[k] = cloneApplication(v)
	}
	return out
}

type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool

	// IncrementErr, when set, fails every applicant counter update.
	IncrementErr error
}

func New() *Store {
	st := &state{
		jobs:         map[uuid.UUID]job.Job{},
		applications: map[uuid.UUID]application.Application{},
	}
	return &Store{mu: &sync.Mutex{}, st: &st}
}

// PutJob seeds or replaces a job.
func (s *Store) PutJob(j job.Job) {
	s.lock()
	defer s.unlock()
	(*s.st).jobs[j.ID] = j
}

func (s *Store) Job(id uuid.UUID) (job.Job, bool) {
	s.lock()
	defer s.unlock()
	j, ok := (*s.st).jobs[id]
	return j, ok
}

func (s *Store) Application(id uuid.UUID) (application.Application, bool) {
	s.lock()
	defer s.unlock()
	a, ok := (*s.st).applications[id]
	return cloneApplication(a), ok
}

// PutApplication writes a record directly, bypassing the counter.
func (s *Store) PutApplication(a application.Application) {
	s.lock()
	defer s.unlock()
	(*s.st).applications[a.ID] = cloneApplication(a)
}

func (s *Store) Applications() repository.ApplicationRepository { return applications{s} }
func (s *Store) Jobs() repository.JobRepository                 { return jobs{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.st).clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, IncrementErr: s.IncrementErr}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

type applications struct{ s *Store }

func (r applications) Create(_ context.Context, a application.Application) error {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	for _, existing := range st.applications {
		if existing.JobID == a.JobID && existing.SeekerID == a.SeekerID {
			return repository.ErrApplicationExists
		}
	}
	if _, ok := st.applications[a.ID]; ok {
		return repository.ErrApplicationExists
	}
	st.applications[a.ID] = cloneApplication(a)
	return nil
}

func (r applications) FindByID(_ context.Context, id uuid.UUID) (application.Application, error) {
	r.s.lock()
	defer r.s.unlock()
	a, ok := (*r.s.st).applications[id]
	if !ok {
		return application.Application{}, repository.ErrApplicationNotFound
	}
	return cloneApplication(a), nil
}

func (r applications) FindByJobAndSeeker(_ context.Context, jobID, seekerID uuid.UUID) (application.Application, error) {
	r.s.lock()
	defer r.s.unlock()
	for _, a := range (*r.s.st).applications {
		if a.JobID == jobID && a.SeekerID == seekerID {
			return cloneApplication(a), nil
		}
	}
	return application.Application{}, repository.ErrApplicationNotFound
}

func (r applications) Transition(_ context.Context, p repository.TransitionParams) (application.Application, error) {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	a, ok := st.applications[p.ApplicationID]
	if !ok {
		return application.Application{}, repository.ErrApplicationNotFound
	}
	if p.SeekerID != uuid.Nil && a.SeekerID != p.SeekerID {
		return application.Application{}, repository.ErrApplicationNotFound
	}
	if p.RecruiterID != uuid.Nil && a.RecruiterID != p.RecruiterID {
		return application.Application{}, repository.ErrApplicationNotFound
	}
	for _, b := range p.BlockedFrom {
		if a.Status == b {
			return application.Application{}, repository.ErrTransitionBlocked
		}
	}

	a = cloneApplication(a)
	a.Append(p.Entry)
	if p.Interview != nil {
		d := *p.Interview
		a.InterviewDetails = &d
	}
	st.applications[a.ID] = a
	return cloneApplication(a), nil
}

func (r applications) UpdateRecruiterNotes(_ context.Context, id, recruiterID uuid.UUID, notes string, now time.Time) (application.Application, error) {
	return r.update(id, recruiterID, now, func(a *application.Application) { a.RecruiterNotes = notes })
}

func (r applications) UpdateRating(_ context.Context, id, recruiterID uuid.UUID, rating int, now time.Time) (application.Application, error) {
	return r.update(id, recruiterID, now, func(a *application.Application) {
		v := rating
		a.Rating = &v
	})
}

func (r applications) update(id, recruiterID uuid.UUID, now time.Time, mutate func(*application.Application)) (application.Application, error) {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	a, ok := st.applications[id]
	if !ok || a.RecruiterID != recruiterID {
		return application.Application{}, repository.ErrApplicationNotFound
	}
	a = cloneApplication(a)
	mutate(&a)
	a.UpdatedAt = now
	st.applications[id] = a
	return cloneApplication(a), nil
}

func (r applications) ListBySeeker(_ context.Context, seekerID uuid.UUID, f repository.ApplicationFilter) ([]application.Application, error) {
	return r.list(func(a application.Application) bool { return a.SeekerID == seekerID }, f), nil
}

func (r applications) CountBySeeker(_ context.Context, seekerID uuid.UUID, status application.Status) (int, error) {
	return r.count(func(a application.Application) bool {
		return a.SeekerID == seekerID && (status == "" || a.Status == status)
	}), nil
}

func (r applications) ListByJob(_ context.Context, jobID uuid.UUID, f repository.ApplicationFilter) ([]application.Application, error) {
	return r.list(func(a application.Application) bool { return a.JobID == jobID }, f), nil
}

func (r applications) CountByJob(_ context.Context, jobID uuid.UUID, status application.Status) (int, error) {
	return r.count(func(a application.Application) bool {
		return a.JobID == jobID && (status == "" || a.Status == status)
	}), nil
}

func (r applications) CountActiveByJob(_ context.Context, jobID uuid.UUID) (int, error) {
	return r.count(func(a application.Application) bool {
		return a.JobID == jobID && a.Status != application.StatusWithdrawn
	}), nil
}

func (r applications) list(match func(application.Application) bool, f repository.ApplicationFilter) []application.Application {
	r.s.lock()
	defer r.s.unlock()

	all := make([]application.Application, 0)
	for _, a := range (*r.s.st).applications {
		if !match(a) || (f.Status != "" && a.Status != f.Status) {
			continue
		}
		all = append(all, cloneApplication(a))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AppliedAt.Equal(all[j].AppliedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].AppliedAt.After(all[j].AppliedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 15
	}
	if f.Offset >= len(all) {
		return []application.Application{}
	}
	end := f.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end]
}

func (r applications) count(match func(application.Application) bool) int {
	r.s.lock()
	defer r.s.unlock()
	n := 0
	for _, a := range (*r.s.st).applications {
		if match(a) {
			n++
		}
	}
	return n
}

type jobs struct{ s *Store }

func (r jobs) FindByID(_ context.Context, jobID uuid.UUID) (job.Job, error) {
	return r.find(jobID, func(job.Job) bool { return true })
}

func (r jobs) FindEligible(_ context.Context, jobID uuid.UUID, now time.Time) (job.Job, error) {
	return r.find(jobID, func(j job.Job) bool { return j.AcceptsApplications(now) })
}

func (r jobs) FindOwnedBy(_ context.Context, jobID, recruiterID uuid.UUID) (job.Job, error) {
	return r.find(jobID, func(j job.Job) bool { return j.RecruiterID == recruiterID })
}

func (r jobs) FindByIDForUpdate(_ context.Context, jobID uuid.UUID) (job.Job, error) {
	return r.find(jobID, func(job.Job) bool { return true })
}

func (r jobs) find(jobID uuid.UUID, match func(job.Job) bool) (job.Job, error) {
	r.s.lock()
	defer r.s.unlock()
	j, ok := (*r.s.st).jobs[jobID]
	if !ok || !match(j) {
		return job.Job{}, repository.ErrJobNotFound
	}
	return j, nil
}

func (r jobs) IncrementApplicantCount(_ context.Context, jobID uuid.UUID, delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: got %d", repository.ErrInvalidDelta, delta)
	}
	if r.s.IncrementErr != nil {
		return r.s.IncrementErr
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	j, ok := st.jobs[jobID]
	if !ok {
		return repository.ErrJobNotFound
	}
	j.TotalApplications += delta
	if j.TotalApplications < 0 {
		j.TotalApplications = 0
	}
	st.jobs[jobID] = j
	return nil
}

func (r jobs) SetApplicantCount(_ context.Context, jobID uuid.UUID, total int) error {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	j, ok := st.jobs[jobID]
	if !ok {
		return repository.ErrJobNotFound
	}
	if total < 0 {
		total = 0
	}
	j.TotalApplications = total
	st.jobs[jobID] = j
	return nil
}

func cloneApplication(a application.Application) application.Application {
	a.StatusHistory = append([]application.StatusHistoryEntry(nil), a.StatusHistory...)
	if a.InterviewDetails != nil {
		d := *a.InterviewDetails
		a.InterviewDetails = &d
	}
	if a.Rating != nil {
		r := *a.Rating
		a.Rating = &r
	}
	return a
}
