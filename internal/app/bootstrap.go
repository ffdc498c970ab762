package app

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"matchsync/internal/config"
	"matchsync/internal/delivery/http/handler"
	"matchsync/internal/delivery/http/middleware"
	"matchsync/internal/delivery/http/routes"
	v1 "matchsync/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application on top of an initialized container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: c.Config.App.AppName,
	})

	registerGlobalMiddleware(f, c.Config, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config) (*App, func() error, error) {
	logger := log.Default()

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	app := New(c)
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, logger *log.Logger) {
	if app == nil {
		return
	}

	accessLog := middleware.NewAccessLogMiddleware(logger)
	app.Use(accessLog.Middleware())

	errMw := middleware.NewErrorMiddleware(logger)
	app.Use(errMw.Middleware())

	app.Use(cors.New(corsConfig(cfg.App.CORSAllowOrigins)))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodOptions},
		AllowHeaders: []string{fiber.HeaderAuthorization, fiber.HeaderContentType, middleware.HeaderRequestID},
	}
	// Credentials cannot be combined with a wildcard origin.
	cfg.AllowCredentials = !slices.Contains(origins, "*")
	return cfg
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	registry := routes.NewRegistry(
		handler.NewGatewayHandler(c.Gateway).WithDebugRoutes(c.Config.App.Environment != "production"),
		v1.Handlers{
			Auth:    middleware.NewAuthMiddleware(c.Tokens),
			Profile: handler.NewProfileHandler(c.Profiles),
		},
		c.Registry,
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
