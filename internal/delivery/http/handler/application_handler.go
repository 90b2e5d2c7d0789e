package handler

import (
	"errors"
	"strings"
	"time"

	"jobboard/internal/delivery/http/dto"
	"jobboard/internal/delivery/http/middleware"
	"jobboard/internal/domain/application"
	"jobboard/internal/domain/identity"
	"jobboard/internal/pkg/response"
	"jobboard/internal/usecase/applications"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	uc      applications.Usecase
	limiter fiber.Handler
}

// NewApplicationHandler wires the /applications routes. limiter guards the
// mutating routes and may be nil.
func NewApplicationHandler(uc applications.Usecase, limiter fiber.Handler) *ApplicationHandler {
	if limiter == nil {
		limiter = func(c fiber.Ctx) error { return c.Next() }
	}
	return &ApplicationHandler{uc: uc, limiter: limiter}
}

// RegisterRoutes expects r to be behind the auth middleware. Static segments are
// registered before /:id so that /mine and /job/... are not captured by it.
func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	seeker := middleware.RequireRoles(identity.RoleSeeker)
	recruiter := middleware.RequireRoles(identity.RoleRecruiter)
	party := middleware.RequireRoles(identity.RoleSeeker, identity.RoleRecruiter)

	r.Post("/", seeker, h.limiter, h.Submit)
	r.Get("/mine", seeker, h.ListMine)
	r.Get("/job/:jobId/applied", seeker, h.CheckApplied)
	r.Get("/job/:jobId", recruiter, h.ListForJob)
	r.Get("/:id", party, h.Get)
	r.Patch("/:id/withdraw", seeker, h.limiter, h.Withdraw)
	r.Patch("/:id/status", recruiter, h.limiter, h.ChangeStatus)
	r.Patch("/:id/notes", recruiter, h.limiter, h.UpdateNotes)
	r.Patch("/:id/rating", recruiter, h.limiter, h.Rate)
	r.Patch("/:id/interview", recruiter, h.limiter, h.ScheduleInterview)
}

func (h *ApplicationHandler) Submit(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req dto.SubmitApplicationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	jobID, err := uuid.Parse(strings.TrimSpace(req.Job))
	if err != nil {
		jobID = uuid.Nil
	}

	p, err := h.uc.Submit(c.Context(), actor, application.SubmitInput{
		JobID: jobID,
		Resume: application.Resume{
			URL:          strings.TrimSpace(req.Resume.URL),
			OriginalName: strings.TrimSpace(req.Resume.OriginalName),
		},
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	return response.Success(c, fiber.StatusCreated, "Application submitted successfully", dto.NewApplicationResponse(p))
}

func (h *ApplicationHandler) ListMine(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	q, err := parseListQuery(c)
	if err != nil {
		return err
	}

	page, err := h.uc.ListForSeeker(c.Context(), actor, q)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return writePage(c, page)
}

func (h *ApplicationHandler) ListForJob(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := parseUUIDParam(c, "jobId", "Invalid job ID")
	if err != nil {
		return err
	}
	q, err := parseListQuery(c)
	if err != nil {
		return err
	}

	page, err := h.uc.ListForJob(c.Context(), actor, jobID, q)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return writePage(c, page)
}

func (h *ApplicationHandler) CheckApplied(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := parseUUIDParam(c, "jobId", "Invalid job ID")
	if err != nil {
		return err
	}

	res, err := h.uc.CheckIfApplied(c.Context(), actor, jobID)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	out := dto.CheckAppliedResponse{HasApplied: res.HasApplied}
	if res.Application != nil {
		out.Application = &dto.AppliedApplicationResponse{
			ID:        res.Application.ID,
			Status:    string(res.Application.Status),
			AppliedAt: res.Application.AppliedAt,
		}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	p, err := h.uc.Get(c.Context(), actor, id)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponse(p))
}

func (h *ApplicationHandler) Withdraw(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	p, err := h.uc.Withdraw(c.Context(), actor, id)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Application withdrawn successfully", dto.NewApplicationResponse(p))
}

func (h *ApplicationHandler) ChangeStatus(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	var req dto.ChangeStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	p, err := h.uc.ChangeStatus(c.Context(), actor, id, req.Status, req.Remarks)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Application status updated", dto.StatusResponse{Status: string(p.Status)})
}

func (h *ApplicationHandler) UpdateNotes(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	var req dto.RecruiterNotesRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	p, err := h.uc.AddRecruiterNotes(c.Context(), actor, id, req.RecruiterNotes)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	notes := ""
	if p.RecruiterNotes != nil {
		notes = *p.RecruiterNotes
	}
	return response.Success(c, fiber.StatusOK, "Notes updated", dto.RecruiterNotesResponse{RecruiterNotes: notes})
}

func (h *ApplicationHandler) Rate(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	var req dto.RatingRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	p, err := h.uc.RateApplicant(c.Context(), actor, id, req.Rating)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	rating := 0
	if p.Rating != nil {
		rating = *p.Rating
	}
	return response.Success(c, fiber.StatusOK, "Rating updated", dto.RatingResponse{Rating: rating})
}

func (h *ApplicationHandler) ScheduleInterview(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := parseUUIDParam(c, "id", "Invalid application ID")
	if err != nil {
		return err
	}

	var req dto.ScheduleInterviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	date, err := parseInterviewDate(req.Date)
	if err != nil {
		return middleware.NewValidationAppError(application.NewValidationError("date", "Invalid interview date"))
	}

	p, err := h.uc.ScheduleInterview(c.Context(), actor, id, application.InterviewDetails{
		Date:        date,
		Time:        strings.TrimSpace(req.Time),
		Location:    strings.TrimSpace(req.Location),
		Type:        application.InterviewType(strings.TrimSpace(req.Type)),
		MeetingLink: strings.TrimSpace(req.MeetingLink),
		Notes:       req.Notes,
	})
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	out := dto.InterviewResponse{Status: string(p.Status)}
	if p.InterviewDetails != nil {
		out.InterviewDetails = dto.NewInterviewDetailsResponse(*p.InterviewDetails)
	}
	return response.Success(c, fiber.StatusOK, "Interview scheduled", out)
}

func writePage(c fiber.Ctx, page applications.Page) error {
	return response.Page(c, response.MessageOK, dto.NewApplicationResponses(page.Items), response.Pagination{
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

func parseListQuery(c fiber.Ctx) (applications.ListQuery, error) {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return applications.ListQuery{}, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return applications.ListQuery{}, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return applications.ListQuery{Status: c.Query("status"), Page: page, Limit: limit}, nil
}

func parseUUIDParam(c fiber.Ctx, name, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.NewValidationAppError(application.NewValidationError(name, message))
	}
	return id, nil
}

// parseInterviewDate accepts RFC 3339 or a calendar date, read as UTC midnight.
func parseInterviewDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func mapApplicationUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, application.ErrValidation):
		return middleware.NewValidationAppError(err)
	case errors.Is(err, applications.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, applications.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, err)
	case errors.Is(err, applications.ErrConflict):
		return middleware.NewAppError(fiber.StatusConflict, "You have already applied for this job", nil, err)
	case errors.Is(err, applications.ErrInvalidTransition):
		return middleware.NewAppError(fiber.StatusBadRequest, "Status change not allowed", nil, err)
	case errors.Is(err, applications.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Access denied", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
