package profile

import (
	"errors"

	"petadopt-backend/internal/application/profiles"
	"petadopt-backend/internal/interfaces/handlers/uploads"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *profiles.Service
}

// identity is what the default display name is derived from.
func identity(u *middleware.SessionUser) string {
	switch {
	case u.Email != nil && *u.Email != "":
		return *u.Email
	case u.Phone != nil:
		return *u.Phone
	}
	return ""
}

// Get GET /api/v1/profile
func (h *Handlers) Get(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	uid, idOK := middleware.CurrentUserID(c)
	if !ok || !idOK {
		return response.Unauthorized(c, "Unauthorized")
	}
	view, err := h.Service.Load(c.UserContext(), uid, identity(u))
	if err != nil {
		log.Error().Err(err).Str("user_id", u.UserID).Msg("profile: load failed")
		return response.Internal(c)
	}
	return response.Success(c, "Profile fetched successfully", view, nil)
}

// Update PUT /api/v1/profile {name, bio, avatar_url}
func (h *Handlers) Update(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in profiles.SaveInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	p, err := h.Service.Save(c.UserContext(), uid, in)
	if errors.Is(err, profiles.ErrNameRequired) {
		return response.BadRequest(c, err.Error(), nil)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", uid.String()).Msg("profile: save failed")
		return response.Internal(c)
	}
	return response.Success(c, "Profile updated successfully!", p, nil)
}

// Avatar POST /api/v1/profile/avatar uploads a picture and returns its URL.
// The client sends that URL back with Update.
func (h *Handlers) Avatar(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	img, err := uploads.ReadImage(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}
	if len(img.Data) == 0 {
		return response.BadRequest(c, "Please choose an image", nil)
	}
	url, err := h.Service.UploadAvatar(c.UserContext(), img)
	if err != nil {
		log.Warn().Err(err).Str("user_id", uid.String()).Msg("profile: avatar upload failed")
		return response.Error(c, "Failed to upload image.", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Avatar uploaded", fiber.Map{"avatar_url": url}, nil)
}
