package routes

import (
	"matchsync/internal/delivery/http/handler"
	v1 "matchsync/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	gateway  *handler.GatewayHandler
	v1       v1.Handlers
	gatherer prometheus.Gatherer
}

// NewRegistry wires the route groups. A nil gatherer leaves /metrics
// unregistered.
func NewRegistry(gateway *handler.GatewayHandler, v1Handlers v1.Handlers, gatherer prometheus.Gatherer) *Registry {
	return &Registry{gateway: gateway, v1: v1Handlers, gatherer: gatherer}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerMetrics(app)
	r.registerAPI(app)
}

func (r *Registry) registerMetrics(app *fiber.App) {
	if r.gatherer == nil {
		return
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1)
	if r.gateway != nil {
		r.gateway.RegisterRoutes(api)
	}
}
