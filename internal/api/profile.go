package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/session"
	"github.com/illegalcall/foodpost/internal/storage"
	"github.com/illegalcall/foodpost/internal/store"
)

// callerProfile loads the signed-in owner's profile. A missing profile is (nil, nil).
func (s *Server) callerProfile(c *fiber.Ctx) (*models.Profile, error) {
	id := session.CurrentIdentity(c)
	if id == nil {
		return nil, nil
	}
	profile, err := s.profiles.GetProfile(c.UserContext(), id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return profile, err
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return c.JSON(models.ProfileResponse{
		Profile:  profile,
		Complete: profile.IsComplete(),
		Success:  true,
	})
}

// handleSaveProfile creates the caller's profile on first save and updates it afterwards.
func (s *Server) handleSaveProfile(c *fiber.Ctx) error {
	var req models.Profile
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if fields := models.ValidateProfile(&req); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.APIResponse{
			Success: false,
			Error:   "Invalid profile",
			Fields:  fields,
		})
	}

	existing, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}

	req.OwnerID = session.CurrentIdentity(c).UserID
	req.ID = ""
	if existing != nil {
		req.ID = existing.ID
		if req.LogoURL == "" {
			req.LogoURL = existing.LogoURL
		}
	}

	return s.saveProfile(c, &req)
}

func (s *Server) saveProfile(c *fiber.Ctx, p *models.Profile) error {
	saved, err := s.profiles.SaveProfile(c.UserContext(), p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return s.fail(c, fiber.StatusConflict, "Profile already exists for this user")
		}
		s.logger.Error("Failed to save profile", "owner_id", p.OwnerID, "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to save profile")
	}

	s.logger.Info("Profile saved", "profile_id", saved.ID, "owner_id", saved.OwnerID)
	return c.JSON(models.ProfileResponse{
		Profile:  saved,
		Complete: saved.IsComplete(),
		Success:  true,
	})
}

// handleUploadLogo stores the logo first, then points the caller's profile at it.
// Without a saved profile the URL is only returned, for the next profile save.
func (s *Server) handleUploadLogo(c *fiber.Ctx) error {
	if s.logos == nil {
		return s.fail(c, fiber.StatusInternalServerError, "Logo storage is not configured")
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Logo file is required")
	}
	if limit := s.cfg.Storage.MaxLogoSize; limit > 0 && file.Size > limit {
		return s.fail(c, fiber.StatusRequestEntityTooLarge, "Logo file is too large")
	}

	src, err := file.Open()
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, "Failed to read logo file")
	}
	defer src.Close()

	owner := session.CurrentIdentity(c).UserID
	url, err := s.logos.UploadLogo(c.UserContext(), owner, file.Filename, src)
	s.metrics.ObserveUpload(err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return s.fail(c, fiber.StatusBadRequest, "Unsupported logo file type")
		}
		s.logger.Error("Logo upload failed", "owner_id", owner, "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to upload logo")
	}
	s.logger.Info("Logo uploaded", "owner_id", owner, "url", url)

	profile, err := s.callerProfile(c)
	if err != nil {
		s.logger.Error("Failed to load profile", "error", err)
		return s.fail(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	if profile == nil {
		return c.JSON(models.APIResponse{Success: true, Data: fiber.Map{"logo_url": url}})
	}

	profile.LogoURL = url
	return s.saveProfile(c, profile)
}
