package listings

import (
	"errors"
	"strconv"
	"strings"

	listsvc "petadopt-backend/internal/application/listings"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/interfaces/handlers/uploads"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service   *listsvc.Service
	Submitter *listsvc.Submitter
}

// degrade answers a failed read with an empty list; the cause is only logged.
func degrade(c *fiber.Ctx, route string, err error) error {
	log.Error().Err(err).Str("route", route).Str("trace_id", middleware.GetTraceID(c)).Msg("pets: read failed")
	return response.List(c, "Pets fetched successfully", []domain.Listing{}, 0)
}

// Explore GET /api/v1/pets?species=&breed=&sort=&limit=
func (h *Handlers) Explore(c *fiber.Ctx) error {
	q := listsvc.Query{
		Species: c.Query("species"),
		Breed:   c.Query("breed"),
		Sort:    listsvc.Sort(c.Query("sort")),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.BadRequest(c, "limit must be a non-negative integer", nil)
		}
		q.Limit = min(n, listsvc.MaxLimit)
	}

	pets, err := h.Service.Browse(c.UserContext(), q)
	if errors.Is(err, listsvc.ErrInvalidSort) {
		return response.BadRequest(c, err.Error(), nil)
	}
	if err != nil {
		return degrade(c, "explore", err)
	}
	return response.List(c, "Pets fetched successfully", pets, len(pets))
}

// Home GET /api/v1/pets/home: the newest pets.
func (h *Handlers) Home(c *fiber.Ctx) error {
	pets, err := h.Service.Browse(c.UserContext(), listsvc.Query{Sort: listsvc.SortNewest, Limit: listsvc.HomeLimit})
	if err != nil {
		return degrade(c, "home", err)
	}
	return response.List(c, "Pets fetched successfully", pets, len(pets))
}

// Feed GET /api/v1/pets/feed: urgent, trending and new arrivals sections.
func (h *Handlers) Feed(c *fiber.Ctx) error {
	feed, err := h.Service.Feed(c.UserContext())
	if err != nil {
		log.Error().Err(err).Str("route", "feed").Str("trace_id", middleware.GetTraceID(c)).Msg("pets: feed section failed")
	}
	return response.Success(c, "Feed fetched successfully", feed, nil)
}

// Get GET /api/v1/pets/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid pet id", nil)
	}
	pet, err := h.Service.Get(c.UserContext(), uint(id))
	if errors.Is(err, listsvc.ErrPetNotFound) {
		return response.NotFound(c, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Uint64("pet_id", id).Msg("pets: get failed")
		return response.Internal(c)
	}
	return response.Success(c, "Pet fetched successfully", pet, nil)
}

func formBool(c *fiber.Ctx, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.FormValue(key)))
	return b
}

// Create POST /api/v1/pets (multipart form, or urlencoded with image_base64).
func (h *Handlers) Create(c *fiber.Ctx) error {
	img, err := uploads.ReadImage(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}
	in := listsvc.SubmitInput{
		Name:         c.FormValue("name"),
		Species:      c.FormValue("species"),
		Breed:        c.FormValue("breed"),
		Age:          c.FormValue("age"),
		Gender:       c.FormValue("gender"),
		Location:     c.FormValue("location"),
		Description:  c.FormValue("description"),
		HealthStatus: c.FormValue("health_status"),
		Vaccinated:   formBool(c, "vaccinated"),
		SpecialNeeds: formBool(c, "special_needs"),
		Image:        img,
	}
	if raw := strings.TrimSpace(c.FormValue("adoption_fee")); raw != "" {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil || fee < 0 {
			return response.BadRequest(c, "adoption_fee must be a non-negative number", nil)
		}
		in.AdoptionFee = fee
	}
	if uid, ok := middleware.CurrentUserID(c); ok {
		in.SubmittedBy = &uid
	}

	pet, err := h.Submitter.Submit(c.UserContext(), in)
	var verr *listsvc.ValidationError
	switch {
	case err == nil:
		return response.SuccessCreated(c, "Pet listed successfully!", pet, nil)
	case errors.As(err, &verr):
		return response.BadRequest(c, verr.Error(), fiber.Map{"missing": verr.Missing})
	case errors.Is(err, listsvc.ErrImageUpload):
		log.Warn().Err(err).Msg("pets: image upload failed")
		return response.Error(c, listsvc.ErrImageUpload.Error(), fiber.StatusBadGateway, nil)
	default:
		log.Error().Err(err).Msg("pets: submit failed")
		return response.Error(c, listsvc.ErrSaveFailed.Error(), fiber.StatusInternalServerError, nil)
	}
}
