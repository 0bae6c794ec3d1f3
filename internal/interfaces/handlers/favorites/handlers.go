package favorites

import (
	"errors"
	"strconv"

	favsvc "petadopt-backend/internal/application/favorites"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *favsvc.Service
}

func petID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("pet_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// List GET /api/v1/favorites
func (h *Handlers) List(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	favs, err := h.Service.List(c.UserContext(), uid)
	if err != nil {
		log.Error().Err(err).Str("user_id", uid.String()).Msg("favorites: list failed")
		favs = []domain.Favorite{}
	}
	return response.List(c, "Favorites fetched successfully", favs, len(favs))
}

// Status GET /api/v1/favorites/:pet_id
func (h *Handlers) Status(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	pid, ok := petID(c)
	if !ok {
		return response.BadRequest(c, "Invalid pet id", nil)
	}
	fav, err := h.Service.IsFavorited(c.UserContext(), uid, pid)
	if err != nil {
		// unknown reads as not favorited
		log.Error().Err(err).Uint("pet_id", pid).Msg("favorites: status failed")
		fav = false
	}
	return response.Success(c, "Favorite status fetched", fiber.Map{"pet_id": pid, "favorited": fav}, nil)
}

// Toggle POST /api/v1/favorites/:pet_id/toggle
func (h *Handlers) Toggle(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	pid, ok := petID(c)
	if !ok {
		return response.BadRequest(c, "Invalid pet id", nil)
	}
	fav, err := h.Service.Toggle(c.UserContext(), uid, pid)
	switch {
	case err == nil:
		msg := "Removed from favorites"
		if fav {
			msg = "Added to favorites"
		}
		return response.Success(c, msg, fiber.Map{"pet_id": pid, "favorited": fav}, nil)
	case errors.Is(err, favsvc.ErrPetNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, favsvc.ErrToggleInFlight):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		log.Error().Err(err).Uint("pet_id", pid).Str("user_id", uid.String()).Msg("favorites: toggle failed")
		return response.Error(c, "Failed to update favorite", fiber.StatusInternalServerError, fiber.Map{"favorited": fav})
	}
}
