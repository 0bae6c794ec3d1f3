package middleware

import (
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequireAuth rejects requests without a session user. Clients treat the 401 as
// "go to the sign-in screen".
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(localUser)
}

// CurrentUser returns the typed session user. ok is false when there is no
// session user or it has no valid user id.
func CurrentUser(c *fiber.Ctx) (*SessionUser, bool) {
	switch u := GetUser(c).(type) {
	case *SessionUser:
		if u == nil {
			return nil, false
		}
		return u, u.UserID != ""
	case map[string]interface{}:
		id, _ := u["user_id"].(string)
		if id == "" {
			return nil, false
		}
		return &SessionUser{
			UserID: id,
			Email:  optString(u["email"]),
			Phone:  optString(u["phone"]),
		}, true
	}
	return nil, false
}

// CurrentUserID parses the session user id.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func optString(v interface{}) *string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return &s
	case *string:
		return s
	}
	return nil
}
