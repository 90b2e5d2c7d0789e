package handler

import (
	"jobboard/internal/delivery/http/dto"
	"jobboard/internal/delivery/http/middleware"
	"jobboard/internal/domain/identity"
	"jobboard/internal/pkg/response"
	"jobboard/internal/usecase/applications"

	"github.com/gofiber/fiber/v3"
)

type AdminHandler struct {
	uc applications.Usecase
}

func NewAdminHandler(uc applications.Usecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/jobs/:jobId/reconcile-applications", middleware.RequireRoles(identity.RoleAdmin), h.ReconcileApplications)
}

// ReconcileApplications recomputes a job's totalApplications from its
// non-withdrawn applications.
func (h *AdminHandler) ReconcileApplications(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := parseUUIDParam(c, "jobId", "Invalid job ID")
	if err != nil {
		return err
	}

	j, err := h.uc.ReconcileApplicantCount(c.Context(), actor, jobID)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Applicant count reconciled", dto.ReconcileResponse{
		JobID:             j.ID,
		TotalApplications: j.TotalApplications,
	})
}
