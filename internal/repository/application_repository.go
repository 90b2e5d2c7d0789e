package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobboard/internal/database"
	"jobboard/internal/database/postgres"
	"jobboard/internal/domain/application"

	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationExists   = errors.New("application already exists")
	ErrTransitionBlocked   = errors.New("application status blocks transition")
)

// ApplicationFilter narrows a listing. An empty Status matches every status.
type ApplicationFilter struct {
	Status application.Status
	Limit  int
	Offset int
}

// TransitionParams describes one atomic status change. A zero SeekerID or
// RecruiterID disables that ownership filter. Interview, when set, replaces the
// stored interview details in the same statement.
type TransitionParams struct {
	ApplicationID uuid.UUID
	SeekerID      uuid.UUID
	RecruiterID   uuid.UUID
	Entry         application.StatusHistoryEntry
	BlockedFrom   []application.Status
	Interview     *application.InterviewDetails
}

type ApplicationRepository interface {
	Create(ctx context.Context, a application.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (application.Application, error)
	FindByJobAndSeeker(ctx context.Context, jobID, seekerID uuid.UUID) (application.Application, error)

	Transition(ctx context.Context, p TransitionParams) (application.Application, error)
	UpdateRecruiterNotes(ctx context.Context, id, recruiterID uuid.UUID, notes string, now time.Time) (application.Application, error)
	UpdateRating(ctx context.Context, id, recruiterID uuid.UUID, rating int, now time.Time) (application.Application, error)

	ListBySeeker(ctx context.Context, seekerID uuid.UUID, f ApplicationFilter) ([]application.Application, error)
	CountBySeeker(ctx context.Context, seekerID uuid.UUID, status application.Status) (int, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, f ApplicationFilter) ([]application.Application, error)
	CountByJob(ctx context.Context, jobID uuid.UUID, status application.Status) (int, error)
	CountActiveByJob(ctx context.Context, jobID uuid.UUID) (int, error)
}

const applicationColumns = `id, job_id, seeker_id, recruiter_id, company_id,
	resume_url, resume_original_name, cover_letter, status,
	status_history, interview_details, recruiter_notes, rating,
	applied_at, created_at, updated_at`

type PostgresApplicationRepository struct {
	db database.Querier
}

func NewPostgresApplicationRepository(db database.Querier) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Create(ctx context.Context, a application.Application) error {
	history, err := json.Marshal(a.StatusHistory)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}
	interview, err := encodeInterview(a.InterviewDetails)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO applications (
			id, job_id, seeker_id, recruiter_id, company_id,
			resume_url, resume_original_name, cover_letter, status,
			status_history, interview_details, recruiter_notes, rating,
			applied_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12, $13, $14, $15, $16)`,
		a.ID, a.JobID, a.SeekerID, a.RecruiterID, a.CompanyID,
		a.Resume.URL, a.Resume.OriginalName, a.CoverLetter, string(a.Status),
		string(history), interview, a.RecruiterNotes, a.Rating,
		a.AppliedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrApplicationExists
		}
		return err
	}
	return nil
}

func (r *PostgresApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	a, err := scanApplication(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return application.Application{}, ErrApplicationNotFound
		}
		return application.Application{}, err
	}
	return a, nil
}

func (r *PostgresApplicationRepository) FindByJobAndSeeker(ctx context.Context, jobID, seekerID uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND seeker_id = $2`,
		jobID, seekerID,
	)
	a, err := scanApplication(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return application.Application{}, ErrApplicationNotFound
		}
		return application.Application{}, err
	}
	return a, nil
}

// Transition re-checks the current status and appends the history entry in a
// single UPDATE. The history grows through jsonb concatenation, so concurrent
// writers never drop each other's entries.
func (r *PostgresApplicationRepository) Transition(ctx context.Context, p TransitionParams) (application.Application, error) {
	entry, err := json.Marshal([]application.StatusHistoryEntry{p.Entry})
	if err != nil {
		return application.Application{}, fmt.Errorf("encode history entry: %w", err)
	}
	interview, err := encodeInterview(p.Interview)
	if err != nil {
		return application.Application{}, err
	}

	row := r.db.QueryRow(ctx,
		`UPDATE applications
		 SET status = $2,
		     status_history = status_history || $3::jsonb,
		     interview_details = COALESCE($4::jsonb, interview_details),
		     updated_at = $5
		 WHERE id = $1
		   AND ($6::uuid IS NULL OR seeker_id = $6::uuid)
		   AND ($7::uuid IS NULL OR recruiter_id = $7::uuid)
		   AND NOT (status = ANY($8::text[]))
		 RETURNING `+applicationColumns,
		p.ApplicationID,
		string(p.Entry.Status),
		string(entry),
		interview,
		p.Entry.ChangedAt,
		nullableUUID(p.SeekerID),
		nullableUUID(p.RecruiterID),
		statusStrings(p.BlockedFrom),
	)
	a, err := scanApplication(row)
	if err == nil {
		return a, nil
	}
	if !postgres.IsNoRows(err) {
		return application.Application{}, err
	}

	// Nothing matched: tell a missing or foreign record apart from a blocked one.
	var (
		status      string
		seekerID    uuid.UUID
		recruiterID uuid.UUID
	)
	err = r.db.QueryRow(ctx,
		`SELECT status, seeker_id, recruiter_id FROM applications WHERE id = $1`,
		p.ApplicationID,
	).Scan(&status, &seekerID, &recruiterID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return application.Application{}, ErrApplicationNotFound
		}
		return application.Application{}, err
	}
	if p.SeekerID != uuid.Nil && seekerID != p.SeekerID {
		return application.Application{}, ErrApplicationNotFound
	}
	if p.RecruiterID != uuid.Nil && recruiterID != p.RecruiterID {
		return application.Application{}, ErrApplicationNotFound
	}
	return application.Application{}, ErrTransitionBlocked
}

func (r *PostgresApplicationRepository) UpdateRecruiterNotes(ctx context.Context, id, recruiterID uuid.UUID, notes string, now time.Time) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE applications SET recruiter_notes = $3, updated_at = $4
		 WHERE id = $1 AND recruiter_id = $2
		 RETURNING `+applicationColumns,
		id, recruiterID, notes, now,
	)
	return r.scanUpdated(row)
}

func (r *PostgresApplicationRepository) UpdateRating(ctx context.Context, id, recruiterID uuid.UUID, rating int, now time.Time) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE applications SET rating = $3, updated_at = $4
		 WHERE id = $1 AND recruiter_id = $2
		 RETURNING `+applicationColumns,
		id, recruiterID, rating, now,
	)
	return r.scanUpdated(row)
}

func (r *PostgresApplicationRepository) scanUpdated(row database.Row) (application.Application, error) {
	a, err := scanApplication(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return application.Application{}, ErrApplicationNotFound
		}
		return application.Application{}, err
	}
	return a, nil
}

func (r *PostgresApplicationRepository) ListBySeeker(ctx context.Context, seekerID uuid.UUID, f ApplicationFilter) ([]application.Application, error) {
	return r.list(ctx, `seeker_id`, seekerID, f)
}

func (r *PostgresApplicationRepository) CountBySeeker(ctx context.Context, seekerID uuid.UUID, status application.Status) (int, error) {
	return r.count(ctx, `seeker_id`, seekerID, status)
}

func (r *PostgresApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, f ApplicationFilter) ([]application.Application, error) {
	return r.list(ctx, `job_id`, jobID, f)
}

func (r *PostgresApplicationRepository) CountByJob(ctx context.Context, jobID uuid.UUID, status application.Status) (int, error) {
	return r.count(ctx, `job_id`, jobID, status)
}

func (r *PostgresApplicationRepository) CountActiveByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE job_id = $1 AND status <> $2`,
		jobID, string(application.StatusWithdrawn),
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// column is one of the fixed identifiers above, never caller input.
func (r *PostgresApplicationRepository) list(ctx context.Context, column string, id uuid.UUID, f ApplicationFilter) ([]application.Application, error) {
	if f.Limit <= 0 {
		f.Limit = 15
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE `+column+` = $1 AND ($2::text = '' OR status = $2::text)
		 ORDER BY applied_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		id, string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) count(ctx context.Context, column string, id uuid.UUID, status application.Status) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE `+column+` = $1 AND ($2::text = '' OR status = $2::text)`,
		id, string(status),
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func scanApplication(row database.Row) (application.Application, error) {
	var (
		a         application.Application
		status    string
		history   []byte
		interview []byte
		rating    *int
	)
	err := row.Scan(
		&a.ID, &a.JobID, &a.SeekerID, &a.RecruiterID, &a.CompanyID,
		&a.Resume.URL, &a.Resume.OriginalName, &a.CoverLetter, &status,
		&history, &interview, &a.RecruiterNotes, &rating,
		&a.AppliedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return application.Application{}, err
	}
	a.Status = application.Status(status)
	a.Rating = rating

	if len(history) > 0 {
		if err := json.Unmarshal(history, &a.StatusHistory); err != nil {
			return application.Application{}, fmt.Errorf("decode status history: %w", err)
		}
	}
	if len(interview) > 0 && string(interview) != "null" {
		var d application.InterviewDetails
		if err := json.Unmarshal(interview, &d); err != nil {
			return application.Application{}, fmt.Errorf("decode interview details: %w", err)
		}
		a.InterviewDetails = &d
	}
	return a, nil
}

func encodeInterview(d *application.InterviewDetails) (any, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode interview details: %w", err)
	}
	return string(b), nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func statusStrings(in []application.Status) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}
