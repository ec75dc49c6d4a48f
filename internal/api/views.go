package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/session"
)

// View handlers return the data a page needs. They sit behind the session guard,
// so by the time they run the caller may render.

func (s *Server) handleHomeView(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"view":    "home",
		"actions": []string{"/profile", "/generate", "/history"},
	})
}

func (s *Server) handleAuthView(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"view": c.Path()})
}

func (s *Server) handleProfileView(c *fiber.Ctx) error {
	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return c.JSON(fiber.Map{
		"view":     "profile",
		"user":     session.CurrentIdentity(c),
		"profile":  profile,
		"complete": profile.IsComplete(),
		"segments": models.BusinessSegments,
	})
}

func (s *Server) handleGenerateView(c *fiber.Ctx) error {
	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return c.JSON(fiber.Map{
		"view":        "generate",
		"profile":     profile,
		"complete":    profile.IsComplete(),
		"suggestions": models.PromptSuggestions,
	})
}

func (s *Server) handleHistoryView(c *fiber.Ctx) error {
	posts, err := s.historyPosts(c)
	if err != nil {
		s.logger.Error("Error fetching posts", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to fetch posts")
	}
	return c.JSON(fiber.Map{
		"view":  "history",
		"posts": posts,
	})
}
