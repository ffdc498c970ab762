package handler

import (
	"encoding/json"
	"errors"
	"time"

	"matchsync/internal/delivery/http/response"
	"matchsync/internal/domain/profile"
	"matchsync/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// GatewayHandler serves the match proxy endpoints under /api. They answer
// with bare JSON bodies and {"error": ...} failures rather than the
// semantic envelope used by /api/v1.
type GatewayHandler struct {
	uc    usecase.GatewayUsecase
	now   func() time.Time
	debug bool
}

func NewGatewayHandler(uc usecase.GatewayUsecase) *GatewayHandler {
	return &GatewayHandler{uc: uc, now: time.Now}
}

// WithDebugRoutes toggles /debug/external-user/:displayId. It must stay off
// in production.
func (h *GatewayHandler) WithDebugRoutes(enabled bool) *GatewayHandler {
	h.debug = enabled
	return h
}

func (h *GatewayHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
	r.Get("/test-external", h.TestExternal)
	r.Post("/update-user", h.UpdateUser)
	r.Get("/get-user/:displayId?", h.GetUser)
	r.Post("/get-match-results/", h.MatchResults)
	r.Post("/get-recommended-match-results/", h.RecommendedResults)
	r.Post("/get-match-statistics/", h.MatchStatistics)

	if h.debug {
		r.Get("/debug/external-user/:displayId", h.DebugExternalUser)
	}
}

func (h *GatewayHandler) Health(c fiber.Ctx) error {
	return response.JSON(c, fiber.Map{
		"status":    "OK",
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *GatewayHandler) TestExternal(c fiber.Ctx) error {
	body, err := h.uc.CheckUpstream(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "External API unreachable",
			"error":  err.Error(),
		})
	}
	return response.JSON(c, fiber.Map{
		"status":   "External API reachable",
		"response": body,
	})
}

func (h *GatewayHandler) UpdateUser(c fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	out, err := h.uc.UpdateUser(c.Context(), body)
	if err != nil {
		if errors.Is(err, profile.ErrValidation) {
			return response.Error(c, fiber.StatusBadRequest, "user_id is required and must be a string")
		}
		return response.Error(c, fiber.StatusInternalServerError, "Failed to update user")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(out)
}

func (h *GatewayHandler) GetUser(c fiber.Ctx) error {
	out, err := h.uc.UserDetail(c.Context(), c.Params("displayId"))
	if err != nil {
		if errors.Is(err, profile.ErrValidation) {
			return response.Error(c, fiber.StatusBadRequest, "Display ID is required")
		}
		return response.Error(c, fiber.StatusInternalServerError, "Failed to fetch user data")
	}
	return response.JSON(c, out)
}

func (h *GatewayHandler) DebugExternalUser(c fiber.Ctx) error {
	out, err := h.uc.DebugUserDetail(c.Context(), c.Params("displayId"))
	if err != nil {
		if errors.Is(err, profile.ErrValidation) {
			return response.Error(c, fiber.StatusBadRequest, "Display ID is required")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	return response.JSON(c, out)
}

func (h *GatewayHandler) MatchResults(c fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	out, err := h.uc.MatchResults(c.Context(), body)
	if err != nil {
		return gatewayReadError(c, err, "Failed to fetch match results")
	}
	return response.JSON(c, out)
}

func (h *GatewayHandler) RecommendedResults(c fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	out, err := h.uc.RecommendedResults(c.Context(), body)
	if err != nil {
		return gatewayReadError(c, err, "Failed to fetch recommended results")
	}
	return response.JSON(c, out)
}

func (h *GatewayHandler) MatchStatistics(c fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	out, err := h.uc.MatchStatistics(c.Context(), body)
	if err != nil {
		return gatewayReadError(c, err, "Failed to fetch statistics")
	}
	return response.JSON(c, out)
}

func gatewayReadError(c fiber.Ctx, err error, internalMsg string) error {
	if errors.Is(err, profile.ErrValidation) {
		return response.Error(c, fiber.StatusBadRequest, "user_id is required")
	}
	return response.Error(c, fiber.StatusInternalServerError, internalMsg)
}

// decodeBody reads a JSON object body. An empty body decodes to an empty
// map so validation can report the missing fields.
func decodeBody(c fiber.Ctx) (map[string]any, error) {
	raw := c.Body()
	body := map[string]any{}
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}
