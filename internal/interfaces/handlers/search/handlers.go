package search

import (
	"errors"

	searchsvc "petadopt-backend/internal/application/search"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *searchsvc.Service
}

// Submit POST /api/v1/search {query, species, breed}
func (h *Handlers) Submit(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req searchsvc.Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, searchsvc.ErrEmptyQuery.Error(), nil)
	}
	res, err := h.Service.Submit(c.UserContext(), u.UserID, req)
	if errors.Is(err, searchsvc.ErrEmptyQuery) {
		return response.BadRequest(c, err.Error(), nil)
	}
	if err != nil {
		return response.Internal(c)
	}
	return response.Success(c, "Search completed", res, fiber.Map{"count": len(res.Results)})
}

// Recent GET /api/v1/search/recent
func (h *Handlers) Recent(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	recent := h.Service.Recent(c.UserContext(), u.UserID)
	return response.List(c, "Recent searches fetched successfully", recent, len(recent))
}
