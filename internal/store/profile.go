package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/foodpost/internal/models"
)

const profileColumns = "id, fk_id_user, logo_url, primary_color, secondary_color, instagram_link, business_name, segment, created_at"

// ProfileStore reads and writes client_profile rows.
type ProfileStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewProfileStore(db *sqlx.DB, logger *slog.Logger) *ProfileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileStore{db: db, logger: logger}
}

// GetProfile returns the owner's profile, ErrNotFound, or a *QueryError.
func (s *ProfileStore) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile,
		"SELECT "+profileColumns+" FROM client_profile WHERE fk_id_user = $1 LIMIT 1", ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error("Error fetching client profile", "owner_id", ownerID, "error", err)
		return nil, &QueryError{Op: "get profile", Err: err}
	}
	return &profile, nil
}

// SaveProfile updates the row when the profile carries an id and inserts it otherwise.
// The returned profile is the persisted row. Concurrent saves are last-writer-wins.
func (s *ProfileStore) SaveProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	var (
		saved models.Profile
		err   error
		op    string
	)
	if p.ID != "" {
		op = "update profile"
		err = s.db.QueryRowxContext(ctx,
			`UPDATE client_profile
			SET fk_id_user = $1, logo_url = $2, primary_color = $3, secondary_color = $4,
				instagram_link = $5, business_name = $6, segment = $7
			WHERE id = $8
			RETURNING `+profileColumns,
			p.OwnerID, p.LogoURL, p.PrimaryColor, p.SecondaryColor,
			p.InstagramLink, p.BusinessName, p.Segment, p.ID,
		).StructScan(&saved)
	} else {
		op = "insert profile"
		err = s.db.QueryRowxContext(ctx,
			`INSERT INTO client_profile
			(fk_id_user, logo_url, primary_color, secondary_color, instagram_link, business_name, segment)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+profileColumns,
			p.OwnerID, p.LogoURL, p.PrimaryColor, p.SecondaryColor,
			p.InstagramLink, p.BusinessName, p.Segment,
		).StructScan(&saved)
	}

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			s.logger.Info("Profile already exists for owner", "owner_id", p.OwnerID)
			return nil, ErrConflict
		}
		s.logger.Error("Error saving client profile", "op", op, "owner_id", p.OwnerID, "error", err)
		return nil, &QueryError{Op: op, Err: err}
	}
	return &saved, nil
}
