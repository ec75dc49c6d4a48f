package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/foodpost/internal/generation"
	"github.com/illegalcall/foodpost/internal/imagegen"
	"github.com/illegalcall/foodpost/internal/models"
)

func (s *Server) handleGenerateInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Image generation endpoint is available"})
}

// handleGenerate runs one gateway call and returns the image without saving a post.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.GenerateResponse{
			Success: false,
			Error:   "Invalid request body",
		})
	}
	if s.images == nil {
		return s.generateFailed(c, imagegen.ErrMissingAPIKey)
	}

	result, err := s.images.Generate(c.UserContext(), imagegen.Request{
		Prompt:         req.Prompt,
		ProfileContext: req.ProfileContext(),
	})
	if err != nil {
		return s.generateFailed(c, err)
	}

	return c.JSON(models.GenerateResponse{
		Success: true,
		Data: &models.GeneratedImage{
			ImageURL:       result.ImageURL,
			Prompt:         result.Prompt,
			EnhancedPrompt: result.EnhancedPrompt,
			GeneratedAt:    result.GeneratedAt,
		},
	})
}

func (s *Server) generateFailed(c *fiber.Ctx, err error) error {
	status := imagegen.HTTPStatus(err)
	resp := models.GenerateResponse{Success: false, Error: imagegen.Message(err)}
	if status == fiber.StatusInternalServerError && !errors.Is(err, imagegen.ErrMissingAPIKey) {
		resp.Details = s.errorDetail(err)
	}
	return c.Status(status).JSON(resp)
}

// handleGeneratePost runs the full flow for the caller's profile and persists a draft post.
func (s *Server) handleGeneratePost(c *fiber.Ctx) error {
	var req models.GeneratePostRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if s.images == nil || s.posts == nil {
		return s.fail(c, fiber.StatusInternalServerError, imagegen.Message(imagegen.ErrMissingAPIKey))
	}

	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}

	flow := s.generations.NewFlow(profile)
	post, err := flow.Run(c.UserContext(), req.Prompt)
	if err != nil {
		return c.Status(flowStatus(err)).JSON(models.APIResponse{
			Success: false,
			Error:   flow.Reason(),
			Data:    fiber.Map{"generation_id": flow.ID(), "state": flow.State()},
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.APIResponse{
		Success: true,
		Data: fiber.Map{
			"generation_id": flow.ID(),
			"state":         flow.State(),
			"post":          post,
		},
	})
}

func flowStatus(err error) int {
	switch {
	case errors.Is(err, generation.ErrPromptTooShort),
		errors.Is(err, generation.ErrMissingProfileID),
		errors.Is(err, generation.ErrProfileIncomplete):
		return fiber.StatusBadRequest
	case errors.Is(err, generation.ErrSaveFailed):
		return fiber.StatusInternalServerError
	}
	return imagegen.HTTPStatus(err)
}

func (s *Server) handleGetGeneration(c *fiber.Ctx) error {
	rec, err := s.generations.Tracker().Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, generation.ErrUnknownGeneration) {
			return s.fail(c, fiber.StatusNotFound, "Generation not found")
		}
		s.logger.Error("Failed to read generation", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to read generation")
	}

	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	if profile == nil || rec.ProfileID != profile.ID {
		return s.fail(c, fiber.StatusNotFound, "Generation not found")
	}

	return c.JSON(models.APIResponse{Success: true, Data: rec})
}
