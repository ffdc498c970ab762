package v1

import (
	"matchsync/internal/delivery/http/handler"
	"matchsync/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth    *middleware.AuthMiddleware
	Profile *handler.ProfileHandler
}

// Register mounts the session endpoints. All of them require a verified
// identity token.
func Register(r fiber.Router, h Handlers) {
	if r == nil || h.Auth == nil {
		return
	}

	protected := r.Group("", h.Auth.Middleware())
	RegisterProfile(protected, h.Profile)
}
