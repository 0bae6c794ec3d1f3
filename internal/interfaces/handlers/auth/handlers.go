package auth

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authsvc "petadopt-backend/internal/application/auth"
	"petadopt-backend/internal/application/sessionhub"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const defaultHeartbeat = 25 * time.Second

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service   *authsvc.Service
	Hub       *sessionhub.Hub
	Config    middleware.SessionConfig
	Heartbeat time.Duration
}

type otpSendRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Token string `json:"token"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired),
		errors.Is(err, authsvc.ErrInvalidEmailFormat),
		errors.Is(err, authsvc.ErrWeakPassword),
		errors.Is(err, authsvc.ErrPhoneRequired),
		errors.Is(err, authsvc.ErrInvalidPhone):
		return fiber.StatusBadRequest
	case errors.Is(err, authsvc.ErrInvalidEmail),
		errors.Is(err, authsvc.ErrIncorrectPassword),
		errors.Is(err, authsvc.ErrInvalidOTP):
		return fiber.StatusUnauthorized
	case errors.Is(err, authsvc.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, authsvc.ErrOTPDelivery):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, route string, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("route", route).Msg("auth: request failed")
		return response.Internal(c)
	}
	if code == fiber.StatusBadGateway {
		log.Warn().Err(err).Str("route", route).Msg("auth: upstream failed")
		return response.Error(c, authsvc.ErrOTPDelivery.Error(), code, nil)
	}
	return response.Error(c, err.Error(), code, nil)
}

func userBody(u *domain.User) fiber.Map {
	return fiber.Map{"user_id": u.ID.String(), "email": u.Email, "phone": u.Phone}
}

// SignUp POST /api/v1/auth/sign-up
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req authsvc.Credentials
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrEmailPasswordRequired.Error(), nil)
	}
	u, err := h.Service.SignUp(c.UserContext(), req)
	if err != nil {
		return fail(c, "sign-up", err)
	}
	return response.SuccessCreated(c, "Account created. You can now sign in.", fiber.Map{"user": userBody(u)}, nil)
}

// SignIn POST /api/v1/auth/sign-in
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req authsvc.Credentials
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrEmailPasswordRequired.Error(), nil)
	}
	u, err := h.Service.SignIn(c.UserContext(), req)
	if err != nil {
		return fail(c, "sign-in", err)
	}
	return h.startSession(c, u)
}

// SendOTP POST /api/v1/auth/otp/send
func (h *Handlers) SendOTP(c *fiber.Ctx) error {
	var req otpSendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrPhoneRequired.Error(), nil)
	}
	if err := h.Service.SendOTP(c.UserContext(), req.Phone); err != nil {
		return fail(c, "otp/send", err)
	}
	return response.Success(c, "OTP sent. Check your phone for the code.", nil, nil)
}

// VerifyOTP POST /api/v1/auth/otp/verify
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrPhoneRequired.Error(), nil)
	}
	u, err := h.Service.VerifyOTP(c.UserContext(), req.Phone, req.Token)
	if err != nil {
		return fail(c, "otp/verify", err)
	}
	return h.startSession(c, u)
}

// startSession replaces any current session with a fresh id bound to u.
func (h *Handlers) startSession(c *fiber.Ctx, u *domain.User) error {
	ctx := c.UserContext()
	if old := middleware.GetSessionID(c); old != "" {
		prev, _ := middleware.CurrentUser(c)
		prevID := ""
		if prev != nil {
			prevID = prev.UserID
		}
		if err := h.Service.EndSession(ctx, prevID, old); err != nil {
			log.Warn().Err(err).Msg("auth: could not drop previous session")
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, authsvc.SessionUserFor(u))
	if err := h.Service.TrackSession(ctx, u.ID, sessionID); err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("auth: session tracking failed")
		return response.Internal(c)
	}
	c.Cookie(middleware.SessionCookie(h.Config, sessionID))

	if h.Hub != nil {
		h.Hub.Publish(sessionhub.Event{Type: sessionhub.SignedIn, UserID: u.ID.String()})
	}
	return response.Success(c, "Login successful", fiber.Map{"user": userBody(u)}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		if middleware.GetSessionID(c) == "" {
			log.Debug().Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").
				Msg("auth/me: no session id")
		}
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": u}, nil)
}

// SignOut DELETE /api/v1/auth/sign-out. Always succeeds from the client's point of view.
func (h *Handlers) SignOut(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	userID := ""
	if u, ok := middleware.CurrentUser(c); ok {
		userID = u.UserID
	}
	if err := h.Service.EndSession(c.UserContext(), userID, sessionID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("auth: sign-out could not clear redis session")
	}
	middleware.DestroySession(c)
	c.Cookie(middleware.ExpiredSessionCookie(h.Config))

	if h.Hub != nil && userID != "" {
		h.Hub.Publish(sessionhub.Event{Type: sessionhub.SignedOut, UserID: userID})
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}

// Events GET /api/v1/auth/events streams session changes of the signed-in user as
// server-sent events. The stream ends when the user signs out or the client leaves.
func (h *Handlers) Events(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	sub := h.Hub.Subscribe(u.UserID)
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case ev, open := <-sub.Events():
				if !open {
					return
				}
				b, _ := json.Marshal(ev)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, b)
				if err := w.Flush(); err != nil {
					return
				}
				if ev.Type == sessionhub.SignedOut {
					return
				}
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}
