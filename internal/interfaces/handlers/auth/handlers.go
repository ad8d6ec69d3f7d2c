package auth

import (
	authsvc "serviceloop-backend/internal/application/auth"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Config  middleware.SessionConfig
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp POST /api/v1/auth/signup creates the account and signs it in.
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req authsvc.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, authsvc.ErrEmailPasswordRequired)
	}
	profile, err := h.Service.SignUp(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.startSession(c, profile); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Account created", fiber.Map{"user": profile}, nil)
}

// Login POST /api/v1/auth/login authenticates, regenerates the session id and tracks it
// under user_sessions:<user_id>.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, authsvc.ErrEmailPasswordRequired)
	}
	profile, err := h.Service.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.startSession(c, profile); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": profile}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, profile *domain.Profile) error {
	sessionID := middleware.RegenerateSessionID(c)
	fullName := ""
	if profile.FullName != nil {
		fullName = *profile.FullName
	}
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   profile.ID.String(),
		Email:    profile.Email,
		FullName: fullName,
	})
	if err := authsvc.TrackSession(c.UserContext(), h.Service.Rdb, profile.ID.String(), sessionID); err != nil {
		return err
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return nil
}

// Me GET /api/v1/auth/me returns the caller's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		log.Debug().Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": h.Service.EnsureProfile(c.UserContext(), id)}, nil)
}

// Logout DELETE /api/v1/auth/logout drops the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	userID := ""
	if id := middleware.CurrentIdentity(c); id != nil {
		userID = id.ID.String()
	}
	authsvc.UntrackSession(c.UserContext(), h.Service.Rdb, userID, sessionID)
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword POST /api/v1/auth/password/change keeps only the current session.
func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	err := h.Service.ChangePassword(c.UserContext(), middleware.CurrentIdentity(c), req.CurrentPassword, req.NewPassword, middleware.GetSessionID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Password updated", nil, nil)
}

// RequestReset POST /api/v1/auth/password/reset-request always answers the same way
// for valid addresses.
func (h *Handlers) RequestReset(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.Service.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "If an account exists for that email, a reset link has been sent", nil, nil)
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Reset POST /api/v1/auth/password/reset
func (h *Handlers) Reset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.Service.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Password has been reset. Please sign in.", nil, nil)
}
