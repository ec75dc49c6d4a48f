package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/pkg/supabase"
	"github.com/illegalcall/foodpost/internal/session"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return s.fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if s.auth == nil {
		return s.fail(c, fiber.StatusInternalServerError, "Authentication service is not configured")
	}

	s.logger.Info("Authentication attempt", "email", req.Email)

	user, err := s.auth.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidCredentials) {
			return s.fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		s.logger.Error("Authentication error", "error", err)

		errorMessage := "Authentication service error"
		if !s.cfg.IsProduction() {
			errorMessage = fmt.Sprintf("Authentication error: %v", err)
		}
		return s.fail(c, fiber.StatusInternalServerError, errorMessage)
	}

	token, err := session.IssueToken(s.cfg.JWT.Secret, user.ID, user.Email, s.cfg.JWT.Expiration)
	if err != nil {
		s.logger.Error("Failed to generate token", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.JWT.Expiration),
		HTTPOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	s.logger.Info("User successfully authenticated", "user_id", user.ID)

	return c.JSON(models.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		UserID:    user.ID,
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if fields := models.ValidateRegistration(&req); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.APIResponse{
			Success: false,
			Error:   "Invalid registration details",
			Fields:  fields,
		})
	}
	if s.auth == nil {
		return s.fail(c, fiber.StatusInternalServerError, "Authentication service is not configured")
	}

	user, err := s.auth.SignUp(req.Email, req.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Email, "error", err)
		return s.fail(c, fiber.StatusBadRequest, "Could not create account")
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(models.APIResponse{
		Success: true,
		Message: "Account created. Check your email to confirm your address.",
		Data:    fiber.Map{"user_id": user.ID},
	})
}

func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return s.fail(c, fiber.StatusBadRequest, "Email is required")
	}
	if s.auth == nil {
		return s.fail(c, fiber.StatusInternalServerError, "Authentication service is not configured")
	}

	// The response does not reveal whether the address has an account.
	if err := s.auth.Recover(req.Email); err != nil {
		s.logger.Error("Password recovery failed", "error", err)
	}
	return c.JSON(models.APIResponse{
		Success: true,
		Message: "If the address has an account, a reset link is on its way.",
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if id := session.CurrentIdentity(c); id != nil {
		s.logger.Info("User signed out", "user_id", id.UserID)
	}
	return c.JSON(models.APIResponse{Success: true, Message: "Signed out"})
}

func (s *Server) cookieName() string {
	if s.cfg.JWT.CookieName == "" {
		return "session"
	}
	return s.cfg.JWT.CookieName
}
