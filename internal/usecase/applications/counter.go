package applications

import (
	"context"
	"errors"

	"jobboard/internal/domain/identity"
	"jobboard/internal/domain/job"
	"jobboard/internal/repository"

	"github.com/google/uuid"
)

// ReconcileApplicantCount recomputes a job's applicant counter from the
// non-withdrawn applications. The job row stays locked while counting, so a
// concurrent Submit or Withdraw lands after the recount.
func (s *Service) ReconcileApplicantCount(ctx context.Context, actor identity.Actor, jobID uuid.UUID) (job.Job, error) {
	if !actor.Is(identity.RoleAdmin) {
		return job.Job{}, ErrForbidden
	}

	var out job.Job
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		j, err := tx.Jobs().FindByIDForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		n, err := tx.Applications().CountActiveByJob(ctx, jobID)
		if err != nil {
			return err
		}
		if err := tx.Jobs().SetApplicantCount(ctx, jobID, n); err != nil {
			return err
		}
		if j.TotalApplications != n {
			s.logf("[Applications] op=reconcile job_id=%s before=%d after=%d", jobID, j.TotalApplications, n)
		}
		j.TotalApplications = n
		out = j
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, s.internal("reconcile", err)
	}
	return out, nil
}
