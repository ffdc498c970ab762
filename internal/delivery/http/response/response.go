package response

import "github.com/gofiber/fiber/v3"

// ErrorBody is the error shape of the gateway endpoints, which keep the
// plain {"error": "..."} format their existing consumers parse.
type ErrorBody struct {
	Error string `json:"error"`
}

func Error(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorBody{Error: message})
}

// JSON writes v with status 200.
func JSON(c fiber.Ctx, v any) error {
	return c.Status(fiber.StatusOK).JSON(v)
}
