package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/store"
)

func (s *Server) handleListPosts(c *fiber.Ctx) error {
	status := strings.ToLower(c.Query("status", models.FilterAll))
	switch status {
	case models.FilterAll, models.FilterPublished, models.FilterDraft:
	default:
		return s.fail(c, fiber.StatusBadRequest, "status must be one of all, true, false")
	}

	posts, err := s.historyPosts(c)
	if err != nil {
		s.logger.Error("Error fetching posts", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to fetch posts")
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Data:    models.FilterPosts(posts, c.Query("q"), status),
	})
}

// historyPosts returns the caller's posts, newest first. No profile means no posts.
func (s *Server) historyPosts(c *fiber.Ctx) ([]models.Post, error) {
	profile, err := s.callerProfile(c)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []models.Post{}, nil
	}
	return s.posts.GetPosts(c.UserContext(), profile.ID)
}

func (s *Server) handleUpdatePostStatus(c *fiber.Ctx) error {
	postID := c.Params("id")
	if _, err := uuid.Parse(postID); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	var req models.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == nil {
		return s.fail(c, fiber.StatusBadRequest, "status is required")
	}

	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}

	post, err := s.posts.GetPost(c.UserContext(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.fail(c, fiber.StatusNotFound, "Post not found")
		}
		s.logger.Error("Failed to load post", "post_id", postID, "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load post")
	}
	if profile == nil || post.ClientID != profile.ID {
		return s.fail(c, fiber.StatusNotFound, "Post not found")
	}

	if err := s.posts.UpdatePostStatus(c.UserContext(), postID, *req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.fail(c, fiber.StatusNotFound, "Post not found")
		}
		s.logger.Error("Failed to update post status", "post_id", postID, "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to update post status")
	}
	post.Status = *req.Status

	if post.Status == models.StatusPublished {
		if err := s.publisher.Publish(c.UserContext(), models.PostEvent{
			Type:       models.EventPostPublished,
			PostID:     post.ID,
			ProfileID:  post.ClientID,
			ImageURL:   post.ImageURL,
			Status:     post.Status,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			s.logger.Error("Failed to publish post event", "post_id", post.ID, "error", err)
		}
	}

	s.logger.Info("Post status updated", "post_id", post.ID, "status", models.StatusLabel(post.Status))
	return c.JSON(models.APIResponse{Success: true, Data: post})
}

func (s *Server) handleSegments(c *fiber.Ctx) error {
	return c.JSON(models.APIResponse{Success: true, Data: models.BusinessSegments})
}

func (s *Server) handlePromptSuggestions(c *fiber.Ctx) error {
	return c.JSON(models.APIResponse{Success: true, Data: models.PromptSuggestions})
}
