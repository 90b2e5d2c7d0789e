package seeder

import (
	"context"
	"fmt"
	"time"

	"jobboard/internal/database"
	"jobboard/internal/domain/job"

	"github.com/google/uuid"
)

// DemoJobsSeeder inserts a handful of active jobs owned by one recruiter so the
// application endpoints can be exercised locally. Jobs whose title already
// exists for that recruiter are skipped.
type DemoJobsSeeder struct {
	RecruiterID uuid.UUID
	CompanyID   uuid.UUID
	Deadline    time.Time
}

type demoJob struct {
	Title  string
	Status job.Status
}

var demoJobs = []demoJob{
	{Title: "Backend Engineer (Go)", Status: job.StatusActive},
	{Title: "Site Reliability Engineer", Status: job.StatusActive},
	{Title: "Data Engineer", Status: job.StatusActive},
	{Title: "Product Designer", Status: job.StatusPaused},
}

func (DemoJobsSeeder) Name() string { return "demo_jobs" }

func (s DemoJobsSeeder) Run(ctx context.Context, db database.DB) error {
	if s.RecruiterID == uuid.Nil || s.CompanyID == uuid.Nil {
		return fmt.Errorf("recruiter and company ids are required")
	}
	if err := EnsureTableColumns(ctx, db, "jobs",
		"id",
		"recruiter_id",
		"company_id",
		"title",
		"status",
		"application_deadline",
		"total_applications",
	); err != nil {
		return err
	}

	deadline := s.Deadline
	if deadline.IsZero() {
		deadline = time.Now().UTC().AddDate(0, 1, 0)
	}

	for _, it := range demoJobs {
		exists, err := jobTitleExists(ctx, db, s.RecruiterID, it.Title)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		_, err = db.Exec(ctx,
			`INSERT INTO jobs (id, recruiter_id, company_id, title, status, application_deadline)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.New(),
			s.RecruiterID,
			s.CompanyID,
			it.Title,
			string(it.Status),
			deadline,
		)
		if err != nil {
			return fmt.Errorf("insert job %q: %w", it.Title, err)
		}
	}

	return nil
}

func jobTitleExists(ctx context.Context, db database.DB, recruiterID uuid.UUID, title string) (bool, error) {
	var exists bool
	row := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE recruiter_id = $1 AND title = $2)`, recruiterID, title)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
