package handler

import (
	"encoding/json"
	"errors"

	"matchsync/internal/delivery/http/dto"
	"matchsync/internal/delivery/http/middleware"
	"matchsync/internal/domain/profile"
	"matchsync/internal/pkg/response"
	"matchsync/internal/usecase"
	"matchsync/internal/usecase/identity"
	profileuc "matchsync/internal/usecase/profile"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/session", h.StartSession)

	grp := r.Group("/profile")
	grp.Get("", h.GetProfile)
	grp.Patch("", h.UpdateProfile)
	grp.Post("/sync", h.SyncProfile)
	grp.Post("/refresh", h.RefreshProfile)
}

// StartSession creates the caller's profile on first login and returns it
// with inferred domains filled in.
func (h *ProfileHandler) StartSession(c fiber.Ctx) error {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	res, err := h.uc.CreateIfAbsent(c.Context(), id)
	if err != nil {
		return mapProfileError(err)
	}

	prof, err := h.uc.Load(c.Context(), id.UID)
	if err != nil {
		return mapProfileError(err)
	}

	sync := dto.SyncStatus{Status: dto.SyncSkipped}
	if res.Created {
		sync = dto.NewSyncStatus(res.SyncErr)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, response.MessageOK, dto.SessionResponse{
		Profile:  prof,
		Created:  res.Created,
		Repaired: res.Repaired,
		Sync:     sync,
	})
}

func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	prof, err := h.uc.Load(c.Context(), id.UID)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ProfileResponse{Profile: prof})
}

// UpdateProfile merges the request body into the stored profile and then
// pushes it. A failed push is reported in the response, not as an error.
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var patch map[string]any
	if err := json.Unmarshal(c.Body(), &patch); err != nil || len(patch) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	if err := h.uc.Update(c.Context(), id.UID, patch); err != nil {
		return mapProfileError(err)
	}

	sync := dto.NewSyncStatus(h.uc.Sync(c.Context(), id.UID))

	prof, err := h.uc.Load(c.Context(), id.UID)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ProfileResponse{Profile: prof, Sync: &sync})
}

func (h *ProfileHandler) SyncProfile(c fiber.Ctx) error {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	if err := h.uc.Sync(c.Context(), id.UID); err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.SyncStatus{Status: dto.SyncOK})
}

func (h *ProfileHandler) RefreshProfile(c fiber.Ctx) error {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	prof, err := h.uc.RefreshFromUpstream(c.Context(), id.UID)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ProfileResponse{Profile: prof})
}

func mapProfileError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, profile.ErrValidation):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	case errors.Is(err, profile.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
	case errors.Is(err, identity.ErrAllocationExhausted):
		return middleware.NewAppError(fiber.StatusConflict, "Could not allocate a display id", nil, err)
	case errors.Is(err, profileuc.ErrSyncPushFailed):
		return middleware.NewAppError(fiber.StatusBadGateway, "Sync to matching service failed", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
