package applications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"jobboard/internal/domain/application"
	"jobboard/internal/domain/identity"
	"jobboard/internal/domain/job"
	"jobboard/internal/events"
	"jobboard/internal/repository/memstore"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fakeCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	locks map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, locks: map[string]string{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) AcquireLock(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[key]; held {
		return false, nil
	}
	c.locks[key] = token
	return true, nil
}

func (c *fakeCache) ReleaseLock(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] == token {
		delete(c.locks, key)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.ApplicationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.got))
	for _, e := range p.got {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	store     *memstore.Store
	cache     *fakeCache
	published *recordingPublisher

	seeker    identity.Actor
	recruiter identity.Actor
	admin     identity.Actor
	job       job.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	cache := newFakeCache()
	pub := &recordingPublisher{}

	f := &fixture{
		store:     store,
		cache:     cache,
		published: pub,
		seeker:    identity.Actor{ID: uuid.New(), Role: identity.RoleSeeker},
		recruiter: identity.Actor{ID: uuid.New(), Role: identity.RoleRecruiter},
		admin:     identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin},
	}
	f.job = job.Job{
		ID:                  uuid.New(),
		RecruiterID:         f.recruiter.ID,
		CompanyID:           uuid.New(),
		Title:               "Backend Engineer",
		Status:              job.StatusActive,
		ApplicationDeadline: testNow.Add(24 * time.Hour),
	}
	store.PutJob(f.job)

	f.svc = NewService(store, cache, pub, Options{DefaultPageSize: 15, MaxPageSize: 50}, nil)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func validSubmit(jobID uuid.UUID) application.SubmitInput {
	return application.SubmitInput{
		JobID:       jobID,
		Resume:      application.Resume{URL: "https://cdn.example.com/resume.pdf", OriginalName: "resume.pdf"},
		CoverLetter: "I would like to join.",
	}
}

func (f *fixture) submit(t *testing.T, seeker identity.Actor) application.Projection {
	t.Helper()
	p, err := f.svc.Submit(context.Background(), seeker, validSubmit(f.job.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return p
}

func (f *fixture) counter(t *testing.T) int {
	t.Helper()
	j, ok := f.store.Job(f.job.ID)
	if !ok {
		t.Fatalf("job missing")
	}
	return j.TotalApplications
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) application.Application {
	t.Helper()
	a, ok := f.store.Application(id)
	if !ok {
		t.Fatalf("application %s missing", id)
	}
	return a
}

func intPtr(v int) *int { return &v }
