package v1

import (
	"jobboard/internal/delivery/http/handler"
	"jobboard/internal/delivery/http/middleware"
	"jobboard/internal/usecase/applications"

	"github.com/gofiber/fiber/v3"
)

type Deps struct {
	Auth         *middleware.AuthMiddleware
	RateLimit    *middleware.RateLimitMiddleware
	Applications applications.Usecase
}

func Register(r fiber.Router, deps Deps) {
	if r == nil || deps.Auth == nil || deps.Applications == nil {
		return
	}

	var limiter fiber.Handler
	if deps.RateLimit != nil {
		limiter = deps.RateLimit.Middleware()
	}

	applicationHandler := handler.NewApplicationHandler(deps.Applications, limiter)
	adminHandler := handler.NewAdminHandler(deps.Applications)

	protected := r.Group("", deps.Auth.Middleware())

	applicationsGroup := protected.Group("/applications")
	applicationHandler.RegisterRoutes(applicationsGroup)

	adminGroup := protected.Group("/admin")
	adminHandler.RegisterRoutes(adminGroup)
}
