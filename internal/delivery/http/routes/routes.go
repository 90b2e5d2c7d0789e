package routes

import (
	"net/http"

	"jobboard/internal/delivery/http/handler"
	v1 "jobboard/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

type Registry struct {
	health *handler.HealthHandler
	v1     v1.Deps
	ws     http.Handler
}

// NewRegistry collects the handlers mounted by Register. ws may be nil, in which
// case no websocket route is exposed.
func NewRegistry(db handler.Pinger, deps v1.Deps, ws http.Handler) *Registry {
	return &Registry{
		health: handler.NewHealthHandler(db),
		v1:     deps,
		ws:     ws,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerWS(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws == nil {
		return
	}
	app.Get("/ws/applications", adaptor.HTTPHandler(r.ws))
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1)
}
