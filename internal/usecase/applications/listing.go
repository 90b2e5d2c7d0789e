package applications

import (
	"context"
	"errors"
	"strings"

	"jobboard/internal/domain/application"
	"jobboard/internal/domain/identity"
	"jobboard/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ListQuery is a page request. Zero Page and Limit fall back to the first page
// and the configured default size; Limit is capped at the configured maximum.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

type Page struct {
	Items      []application.Projection
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

type normalizedQuery struct {
	status application.Status
	page   int
	limit  int
}

func (s *Service) normalize(q ListQuery) (normalizedQuery, error) {
	out := normalizedQuery{page: q.Page, limit: q.Limit}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		st, ok := application.ParseStatus(raw)
		if !ok {
			return normalizedQuery{}, application.NewValidationError("status", "Invalid status")
		}
		out.status = st
	}
	if out.page < 1 {
		out.page = 1
	}
	if out.limit <= 0 {
		out.limit = s.opts.DefaultPageSize
	}
	if out.limit > s.opts.MaxPageSize {
		out.limit = s.opts.MaxPageSize
	}
	return out, nil
}

// ListForSeeker returns the caller's own applications without history, notes or rating.
func (s *Service) ListForSeeker(ctx context.Context, actor identity.Actor, q ListQuery) (Page, error) {
	if !actor.Is(identity.RoleSeeker) {
		return Page{}, ErrForbidden
	}
	nq, err := s.normalize(q)
	if err != nil {
		return Page{}, err
	}

	repo := s.store.Applications()
	return s.page(ctx, "list_mine", nq, identity.RoleSeeker,
		func(ctx context.Context, f repository.ApplicationFilter) ([]application.Application, error) {
			return repo.ListBySeeker(ctx, actor.ID, f)
		},
		func(ctx context.Context) (int, error) {
			return repo.CountBySeeker(ctx, actor.ID, nq.status)
		},
	)
}

// ListForJob returns the applications of a job owned by the calling recruiter,
// without status history.
func (s *Service) ListForJob(ctx context.Context, actor identity.Actor, jobID uuid.UUID, q ListQuery) (Page, error) {
	if !actor.Is(identity.RoleRecruiter) {
		return Page{}, ErrForbidden
	}
	nq, err := s.normalize(q)
	if err != nil {
		return Page{}, err
	}

	if _, err := s.store.Jobs().FindOwnedBy(ctx, jobID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return Page{}, ErrJobNotFound
		}
		return Page{}, s.internal("list_job", err)
	}

	repo := s.store.Applications()
	return s.page(ctx, "list_job", nq, identity.RoleRecruiter,
		func(ctx context.Context, f repository.ApplicationFilter) ([]application.Application, error) {
			return repo.ListByJob(ctx, jobID, f)
		},
		func(ctx context.Context) (int, error) {
			return repo.CountByJob(ctx, jobID, nq.status)
		},
	)
}

func (s *Service) page(
	ctx context.Context,
	op string,
	nq normalizedQuery,
	viewer identity.Role,
	list func(context.Context, repository.ApplicationFilter) ([]application.Application, error),
	count func(context.Context) (int, error),
) (Page, error) {
	var (
		rows  []application.Application
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = list(gctx, repository.ApplicationFilter{
			Status: nq.status,
			Limit:  nq.limit,
			Offset: (nq.page - 1) * nq.limit,
		})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, s.internal(op, err)
	}

	items := make([]application.Projection, 0, len(rows))
	for _, a := range rows {
		items = append(items, application.ProjectFor(a, viewer, application.ScopeListing))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + nq.limit - 1) / nq.limit
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       nq.page,
		Limit:      nq.limit,
		TotalPages: totalPages,
	}, nil
}
