package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard/internal/database"
	"jobboard/internal/database/postgres"
	"jobboard/internal/domain/job"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrInvalidDelta = errors.New("applicant count delta must be +1 or -1")
)

// JobRepository is the job directory surface the application engine depends on.
// The applicant counter only moves through IncrementApplicantCount, or is
// overwritten wholesale by SetApplicantCount during reconciliation.
type JobRepository interface {
	FindByID(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	FindEligible(ctx context.Context, jobID uuid.UUID, now time.Time) (job.Job, error)
	FindOwnedBy(ctx context.Context, jobID, recruiterID uuid.UUID) (job.Job, error)
	FindByIDForUpdate(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	IncrementApplicantCount(ctx context.Context, jobID uuid.UUID, delta int) error
	SetApplicantCount(ctx context.Context, jobID uuid.UUID, total int) error
}

const jobColumns = `id, recruiter_id, company_id, COALESCE(title, ''), status,
	application_deadline, total_applications, created_at, updated_at`

type PostgresJobRepository struct {
	db database.Querier
}

func NewPostgresJobRepository(db database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) FindByID(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	return r.findOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
}

func (r *PostgresJobRepository) FindEligible(ctx context.Context, jobID uuid.UUID, now time.Time) (job.Job, error) {
	return r.findOne(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE id = $1 AND status = $2 AND application_deadline >= $3`,
		jobID, string(job.StatusActive), now,
	)
}

func (r *PostgresJobRepository) FindOwnedBy(ctx context.Context, jobID, recruiterID uuid.UUID) (job.Job, error) {
	return r.findOne(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND recruiter_id = $2`,
		jobID, recruiterID,
	)
}

// FindByIDForUpdate locks the job row; it only makes sense inside a transaction.
func (r *PostgresJobRepository) FindByIDForUpdate(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	return r.findOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
}

func (r *PostgresJobRepository) IncrementApplicantCount(ctx context.Context, jobID uuid.UUID, delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: got %d", ErrInvalidDelta, delta)
	}
	n, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET total_applications = GREATEST(total_applications + $2, 0), updated_at = now()
		 WHERE id = $1`,
		jobID, delta,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresJobRepository) SetApplicantCount(ctx context.Context, jobID uuid.UUID, total int) error {
	if total < 0 {
		total = 0
	}
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET total_applications = $2, updated_at = now() WHERE id = $1`,
		jobID, total,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresJobRepository) findOne(ctx context.Context, query string, args ...any) (job.Job, error) {
	var (
		j      job.Job
		status string
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.RecruiterID, &j.CompanyID, &j.Title, &status,
		&j.ApplicationDeadline, &j.TotalApplications, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, err
	}
	j.Status = job.Status(status)
	return j, nil
}
