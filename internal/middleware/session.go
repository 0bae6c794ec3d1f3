package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string // signs the cookie; empty leaves it unsigned
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "petadopt.sid"
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
	sessionMaxAge      = 7 * 24 * time.Hour

	localSessionData = "session_data"
	localSessionID   = "session_id"
	localUser        = "user"
)

// SessionUser is the shape stored in the session under "user".
type SessionUser struct {
	UserID string  `json:"user_id"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
}

// Session parses RedisURL, opens a client and returns the session middleware with it.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil, errors.New("REDIS_URL is not set")
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	return SessionStore(rdb, cfg.Secret), rdb, nil
}

// signSessionID is the cookie signature: HMAC-SHA256 of the id, base64url without padding.
func signSessionID(sessionID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// parseSessionCookie returns the session id of a "s:id.signature" cookie. With a
// secret the signature must verify; without one the suffix is ignored.
func parseSessionCookie(value, secret string) string {
	value = strings.TrimPrefix(value, "s:")
	id, sig, signed := strings.Cut(value, ".")
	if secret == "" {
		return id
	}
	if !signed || !hmac.Equal([]byte(sig), []byte(signSessionID(id, secret))) {
		return ""
	}
	return id
}

// SessionStore loads the session named by the cookie from Redis before the
// handler runs and writes it back afterwards when a session id is set.
// Cookies whose signature does not match secret are treated as absent.
func SessionStore(rdb *redis.Client, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := ""
		if raw := c.Cookies(SessionCookieName); raw != "" {
			sessionID = parseSessionCookie(raw, secret)
			if sessionID == "" {
				log.Debug().Msg("session: cookie signature rejected")
			}
		}

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("session: redis read failed")
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals(localSessionData, data)
		if u, ok := data["user"]; ok {
			c.Locals(localUser, u)
		} else {
			c.Locals(localUser, nil)
		}
		c.Locals(localSessionID, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		// Persist after the handler (login sets a fresh id; logout clears the data).
		sid, _ := c.Locals(localSessionID).(string)
		updated, _ := c.Locals(localSessionData).(map[string]interface{})
		if sid == "" || updated == nil || len(updated) == 0 {
			return nil
		}
		b, _ := json.Marshal(updated)
		// Detached from the request context so a timed-out request still saves.
		if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Error().Err(err).Msg("session: redis write failed")
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// SetSessionUser puts the user into the session; it is saved when the request completes.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals(localSessionData).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	u := map[string]interface{}{
		"user_id": user.UserID,
		"email":   user.Email,
		"phone":   user.Phone,
	}
	data["user"] = u
	c.Locals(localSessionData, data)
	c.Locals(localUser, u)
}

// RegenerateSessionID creates a new session ID and sets it in Locals.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(localSessionID, newID)
	return newID
}

// DestroySession clears user and session data from Locals; caller clears cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals(localSessionData, make(map[string]interface{}))
	c.Locals(localUser, nil)
}

// SessionCookie returns the cookie used to carry the session id.
func SessionCookie(cfg SessionConfig, sessionID string) *fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    sessionCookieValue(sessionID, cfg.Secret),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

func sessionCookieValue(sessionID, secret string) string {
	if secret == "" || sessionID == "" {
		return "s:" + sessionID
	}
	return "s:" + sessionID + "." + signSessionID(sessionID, secret)
}

// ExpiredSessionCookie clears the session cookie on the client.
func ExpiredSessionCookie(cfg SessionConfig) *fiber.Cookie {
	cookie := SessionCookie(cfg, "")
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}
