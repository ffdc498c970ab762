package v1

import (
	"matchsync/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func RegisterProfile(r fiber.Router, profileHandler *handler.ProfileHandler) {
	if r == nil {
		return
	}
	if profileHandler == nil {
		return
	}

	profileHandler.RegisterRoutes(r)
}
