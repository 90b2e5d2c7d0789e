package applications

import (
	"context"
	"errors"
	"log"
	"time"

	"jobboard/internal/domain/application"
	"jobboard/internal/domain/identity"
	"jobboard/internal/domain/job"
	"jobboard/internal/events"
	"jobboard/internal/repository"

	"github.com/google/uuid"
)

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	SubmitLockTTL   time.Duration
	AppliedCacheTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 15
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 50
	}
	if o.MaxPageSize < o.DefaultPageSize {
		o.MaxPageSize = o.DefaultPageSize
	}
	if o.SubmitLockTTL <= 0 {
		o.SubmitLockTTL = 10 * time.Second
	}
	if o.AppliedCacheTTL <= 0 {
		o.AppliedCacheTTL = 10 * time.Minute
	}
	return o
}

// Service is the application lifecycle engine. Every operation takes the actor
// descriptor attached by the auth middleware and trusts it as given.
type Service struct {
	store     repository.Store
	cache     Cache
	publisher events.Publisher
	opts      Options
	logger    *log.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewService(store repository.Store, cache Cache, publisher events.Publisher, opts Options, logger *log.Logger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		opts:      opts.withDefaults(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
	}
}

func (s *Service) Submit(ctx context.Context, actor identity.Actor, in application.SubmitInput) (application.Projection, error) {
	if !actor.Is(identity.RoleSeeker) {
		return application.Projection{}, ErrForbidden
	}
	if err := application.ValidateSubmit(in); err != nil {
		return application.Projection{}, err
	}

	now := s.now()
	j, err := s.store.Jobs().FindEligible(ctx, in.JobID, now)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return application.Projection{}, ErrJobNotFound
		}
		return application.Projection{}, s.internal("submit", err)
	}

	// Fast path only; the unique index on (job_id, seeker_id) decides.
	if _, err := s.store.Applications().FindByJobAndSeeker(ctx, j.ID, actor.ID); err == nil {
		return application.Projection{}, ErrConflict
	} else if !errors.Is(err, repository.ErrApplicationNotFound) {
		return application.Projection{}, s.internal("submit", err)
	}

	lockKey := SubmitLockKey(j.ID, actor.ID)
	token := uuid.NewString()
	acquired, err := s.cache.AcquireLock(ctx, lockKey, token, s.opts.SubmitLockTTL)
	if err != nil {
		s.logf("[Applications] op=submit lock_error key=%s err=%v", lockKey, err)
	}
	if !acquired {
		return application.Projection{}, ErrConflict
	}
	defer func() {
		if err := s.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logf("[Applications] op=submit unlock_error key=%s err=%v", lockKey, err)
		}
	}()

	a := application.New(s.newID(), actor.ID, application.Snapshot{
		JobID:       j.ID,
		RecruiterID: j.RecruiterID,
		CompanyID:   j.CompanyID,
	}, in, now)

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Applications().Create(ctx, a); err != nil {
			return err
		}
		return tx.Jobs().IncrementApplicantCount(ctx, j.ID, 1)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationExists):
			return application.Projection{}, ErrConflict
		case errors.Is(err, repository.ErrJobNotFound):
			return application.Projection{}, ErrJobNotFound
		}
		return application.Projection{}, s.internal("submit", err)
	}

	s.logf("[Applications] op=submit application_id=%s job_id=%s seeker_id=%s", a.ID, a.JobID, a.SeekerID)
	s.afterChange(ctx, events.TypeSubmitted, a, actor.ID)
	return application.ProjectFor(a, identity.RoleSeeker, application.ScopeDetail), nil
}

func (s *Service) Withdraw(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (application.Projection, error) {
	if !actor.Is(identity.RoleSeeker) {
		return application.Projection{}, ErrForbidden
	}

	entry := application.StatusHistoryEntry{
		Status:    application.StatusWithdrawn,
		ChangedAt: s.now(),
		ChangedBy: actor.ID,
		Remarks:   application.RemarkWithdrawn,
	}

	var a application.Application
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		a, err = tx.Applications().Transition(ctx, repository.TransitionParams{
			ApplicationID: applicationID,
			SeekerID:      actor.ID,
			Entry:         entry,
			BlockedFrom:   application.WithdrawBlockedStatuses(),
		})
		if err != nil {
			return err
		}
		return tx.Jobs().IncrementApplicantCount(ctx, a.JobID, -1)
	})
	if err != nil {
		return application.Projection{}, s.mapTransitionError("withdraw", err)
	}

	s.logf("[Applications] op=withdraw application_id=%s job_id=%s", a.ID, a.JobID)
	s.afterChange(ctx, events.TypeWithdrawn, a, actor.ID)
	return application.ProjectFor(a, identity.RoleSeeker, application.ScopeDetail), nil
}

func (s *Service) ChangeStatus(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, status, remarks string) (application.Projection, error) {
	if !actor.Is(identity.RoleRecruiter) {
		return application.Projection{}, ErrForbidden
	}
	st, err := application.ValidateStatusChange(status, remarks)
	if err != nil {
		return application.Projection{}, err
	}

	a, err := s.store.Applications().Transition(ctx, repository.TransitionParams{
		ApplicationID: applicationID,
		RecruiterID:   actor.ID,
		Entry: application.StatusHistoryEntry{
			Status:    st,
			ChangedAt: s.now(),
			ChangedBy: actor.ID,
			Remarks:   remarks,
		},
		BlockedFrom: application.RecruiterBlockedStatuses(),
	})
	if err != nil {
		return application.Projection{}, s.mapTransitionError("change_status", err)
	}

	s.logf("[Applications] op=change_status application_id=%s status=%s", a.ID, a.Status)
	s.afterChange(ctx, events.TypeStatusChanged, a, actor.ID)
	return application.ProjectFor(a, identity.RoleRecruiter, application.ScopeDetail), nil
}

// ScheduleInterview replaces any earlier interview details and moves the
// application back into the interview status, whatever it was before.
func (s *Service) ScheduleInterview(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, d application.InterviewDetails) (application.Projection, error) {
	if !actor.Is(identity.RoleRecruiter) {
		return application.Projection{}, ErrForbidden
	}
	now := s.now()
	if err := application.ValidateInterview(d, now); err != nil {
		return application.Projection{}, err
	}

	a, err := s.store.Applications().Transition(ctx, repository.TransitionParams{
		ApplicationID: applicationID,
		RecruiterID:   actor.ID,
		Entry: application.StatusHistoryEntry{
			Status:    application.StatusInterview,
			ChangedAt: now,
			ChangedBy: actor.ID,
			Remarks:   application.InterviewRemark(d),
		},
		BlockedFrom: application.RecruiterBlockedStatuses(),
		Interview:   &d,
	})
	if err != nil {
		return application.Projection{}, s.mapTransitionError("schedule_interview", err)
	}

	s.logf("[Applications] op=schedule_interview application_id=%s type=%s", a.ID, d.Type)
	s.afterChange(ctx, events.TypeInterviewScheduled, a, actor.ID)
	return application.ProjectFor(a, identity.RoleRecruiter, application.ScopeDetail), nil
}

func (s *Service) AddRecruiterNotes(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, notes string) (application.Projection, error) {
	if !actor.Is(identity.RoleRecruiter) {
		return application.Projection{}, ErrForbidden
	}
	if err := application.ValidateNotes(notes); err != nil {
		return application.Projection{}, err
	}

	a, err := s.store.Applications().UpdateRecruiterNotes(ctx, applicationID, actor.ID, notes, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return application.Projection{}, ErrApplicationNotFound
		}
		return application.Projection{}, s.internal("add_notes", err)
	}
	return application.ProjectFor(a, identity.RoleRecruiter, application.ScopeDetail), nil
}

func (s *Service) RateApplicant(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, rating *int) (application.Projection, error) {
	if !actor.Is(identity.RoleRecruiter) {
		return application.Projection{}, ErrForbidden
	}
	if err := application.ValidateRating(rating); err != nil {
		return application.Projection{}, err
	}

	a, err := s.store.Applications().UpdateRating(ctx, applicationID, actor.ID, *rating, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return application.Projection{}, ErrApplicationNotFound
		}
		return application.Projection{}, s.internal("rate", err)
	}
	return application.ProjectFor(a, identity.RoleRecruiter, application.ScopeDetail), nil
}

// Get serves a single application to one of its two parties. Anyone else gets
// ErrApplicationNotFound, the same answer as for a missing record.
func (s *Service) Get(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (application.Projection, error) {
	a, err := s.store.Applications().FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return application.Projection{}, ErrApplicationNotFound
		}
		return application.Projection{}, s.internal("get", err)
	}

	switch actor.ID {
	case a.SeekerID:
		return application.ProjectFor(a, identity.RoleSeeker, application.ScopeDetail), nil
	case a.RecruiterID:
		return application.ProjectFor(a, identity.RoleRecruiter, application.ScopeDetail), nil
	default:
		return application.Projection{}, ErrApplicationNotFound
	}
}

type AppliedResult struct {
	HasApplied  bool                        `json:"hasApplied"`
	Application *application.AppliedSummary `json:"application,omitempty"`
}

func (s *Service) CheckIfApplied(ctx context.Context, actor identity.Actor, jobID uuid.UUID) (AppliedResult, error) {
	if !actor.Is(identity.RoleSeeker) {
		return AppliedResult{}, ErrForbidden
	}

	key := AppliedCacheKey(jobID, actor.ID)
	var cached AppliedResult
	if found, err := s.cache.GetJSON(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	out := AppliedResult{}
	a, err := s.store.Applications().FindByJobAndSeeker(ctx, jobID, actor.ID)
	switch {
	case err == nil:
		sum := application.Summarize(a)
		out = AppliedResult{HasApplied: true, Application: &sum}
	case errors.Is(err, repository.ErrApplicationNotFound):
	default:
		return AppliedResult{}, s.internal("check_applied", err)
	}

	if err := s.cache.SetJSON(ctx, key, out, s.opts.AppliedCacheTTL); err != nil {
		s.logf("[Applications] op=check_applied cache_set_error key=%s err=%v", key, err)
	}
	return out, nil
}

func (s *Service) afterChange(ctx context.Context, t events.Type, a application.Application, actorID uuid.UUID) {
	key := AppliedCacheKey(a.JobID, a.SeekerID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logf("[Applications] cache_invalidate_error key=%s err=%v", key, err)
	}
	if err := s.publisher.Publish(ctx, events.FromTransition(t, a, actorID)); err != nil {
		s.logf("[Applications] publish_error type=%s application_id=%s err=%v", t, a.ID, err)
	}
}

func (s *Service) mapTransitionError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrApplicationNotFound):
		return ErrApplicationNotFound
	case errors.Is(err, repository.ErrTransitionBlocked):
		return ErrInvalidTransition
	}
	return s.internal(op, err)
}

func (s *Service) internal(op string, err error) error {
	s.logf("[Applications] op=%s err=%v", op, err)
	return ErrInternal
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Usecase is the surface the HTTP layer depends on.
type Usecase interface {
	Submit(ctx context.Context, actor identity.Actor, in application.SubmitInput) (application.Projection, error)
	Withdraw(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (application.Projection, error)
	ChangeStatus(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, status, remarks string) (application.Projection, error)
	ScheduleInterview(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, d application.InterviewDetails) (application.Projection, error)
	AddRecruiterNotes(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, notes string) (application.Projection, error)
	RateApplicant(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, rating *int) (application.Projection, error)
	Get(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (application.Projection, error)
	CheckIfApplied(ctx context.Context, actor identity.Actor, jobID uuid.UUID) (AppliedResult, error)
	ListForSeeker(ctx context.Context, actor identity.Actor, q ListQuery) (Page, error)
	ListForJob(ctx context.Context, actor identity.Actor, jobID uuid.UUID, q ListQuery) (Page, error)
	ReconcileApplicantCount(ctx context.Context, actor identity.Actor, jobID uuid.UUID) (job.Job, error)
}

var _ Usecase = (*Service)(nil)
