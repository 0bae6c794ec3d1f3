package petevents

import (
	"errors"
	"strconv"

	evsvc "petadopt-backend/internal/application/petevents"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *evsvc.Service
}

// ForPet GET /api/v1/pets/:id/events
func (h *Handlers) ForPet(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid pet id", nil)
	}
	events, err := h.Service.ForPet(c.UserContext(), uint(id))
	if errors.Is(err, evsvc.ErrPetNotFound) {
		return response.NotFound(c, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Uint64("pet_id", id).Msg("pet events: read failed")
		return response.Internal(c)
	}
	return response.List(c, "Pet events fetched successfully", events, len(events))
}
