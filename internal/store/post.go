package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/foodpost/internal/models"
)

const postColumns = "id, created_at, client_id, prompt, image_url, status"

// PostStore reads and writes post rows.
type PostStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPostStore(db *sqlx.DB, logger *slog.Logger) *PostStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostStore{db: db, logger: logger}
}

// GetPosts returns the profile's posts, newest first. No rows yields an empty slice.
func (s *PostStore) GetPosts(ctx context.Context, profileID string) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.SelectContext(ctx, &posts,
		"SELECT "+postColumns+" FROM post WHERE client_id = $1 ORDER BY created_at DESC", profileID)
	if err != nil {
		s.logger.Error("Error fetching posts", "profile_id", profileID, "error", err)
		return []models.Post{}, &QueryError{Op: "get posts", Err: err}
	}
	return posts, nil
}

func (s *PostStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post, "SELECT "+postColumns+" FROM post WHERE id = $1", postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error("Error fetching post", "post_id", postID, "error", err)
		return nil, &QueryError{Op: "get post", Err: err}
	}
	return &post, nil
}

// SavePost inserts a new post and returns the persisted row.
func (s *PostStore) SavePost(ctx context.Context, p *models.Post) (*models.Post, error) {
	var saved models.Post
	err := s.db.QueryRowxContext(ctx,
		"INSERT INTO post (client_id, prompt, image_url, status) VALUES ($1, $2, $3, $4) RETURNING "+postColumns,
		p.ClientID, p.Prompt, p.ImageURL, p.Status,
	).StructScan(&saved)
	if err != nil {
		s.logger.Error("Error saving post", "profile_id", p.ClientID, "error", err)
		return nil, &QueryError{Op: "save post", Err: err}
	}
	return &saved, nil
}

// UpdatePostStatus changes only the status column.
func (s *PostStore) UpdatePostStatus(ctx context.Context, postID string, status bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE post SET status = $1 WHERE id = $2", status, postID)
	if err != nil {
		s.logger.Error("Error updating post status", "post_id", postID, "error", err)
		return &QueryError{Op: "update post status", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &QueryError{Op: "update post status", Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
