package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/foodpost/internal/models"
)

const (
	ownerID   = "0d8c7c2e-61c1-4f5e-9a6e-2d1b6f3c9a10"
	profileID = "6b1f3c1e-8a51-4a0c-9f55-1f2b3e4d5c6a"
)

var profileCols = []string{"id", "fk_id_user", "logo_url", "primary_color", "secondary_color",
	"instagram_link", "business_name", "segment", "created_at"}

var postCols = []string{"id", "created_at", "client_id", "prompt", "image_url", "status"}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	dbMock, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { dbMock.Close() })
	return sqlx.NewDb(dbMock, "sqlmock"), mock
}

func testProfile() *models.Profile {
	return &models.Profile{
		OwnerID:        ownerID,
		LogoURL:        "https://x/logo.png",
		PrimaryColor:   "#FF5722",
		SecondaryColor: "#FFC107",
		InstagramLink:  "https://instagram.com/padariasol",
		BusinessName:   "Padaria Sol",
		Segment:        "bakery",
	}
}

func profileRow(p *models.Profile, id string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(profileCols).AddRow(id, p.OwnerID, p.LogoURL, p.PrimaryColor, p.SecondaryColor,
		p.InstagramLink, p.BusinessName, p.Segment, createdAt)
}

func TestGetProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewProfileStore(db, nil)
	ctx := context.Background()
	query := regexp.QuoteMeta("FROM client_profile WHERE fk_id_user = $1 LIMIT 1")

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ownerID).
			WillReturnRows(profileRow(testProfile(), profileID, time.Now()))

		p, err := s.GetProfile(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, profileID, p.ID)
		assert.Equal(t, "Padaria Sol", p.BusinessName)
	})

	t.Run("not found is distinguishable from failure", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ownerID).WillReturnRows(sqlmock.NewRows(profileCols))

		p, err := s.GetProfile(ctx, ownerID)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, IsQueryFailed(err))
	})

	t.Run("query failed", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ownerID).WillReturnError(errors.New("connection reset"))

		p, err := s.GetProfile(ctx, ownerID)
		assert.Nil(t, p)
		assert.True(t, IsQueryFailed(err))
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProfile_InsertRoundTrip(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewProfileStore(db, nil)
	in := testProfile()
	createdAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO client_profile")).
		WithArgs(in.OwnerID, in.LogoURL, in.PrimaryColor, in.SecondaryColor, in.InstagramLink, in.BusinessName, in.Segment).
		WillReturnRows(profileRow(in, profileID, createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("FROM client_profile WHERE fk_id_user = $1")).
		WithArgs(ownerID).
		WillReturnRows(profileRow(in, profileID, createdAt))

	saved, err := s.SaveProfile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, profileID, saved.ID)
	assert.Equal(t, createdAt, saved.CreatedAt)

	got, err := s.GetProfile(context.Background(), ownerID)
	require.NoError(t, err)

	want := *in
	want.ID = profileID
	want.CreatedAt = createdAt
	assert.Equal(t, want, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProfile_WithIDUpdatesInPlace(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewProfileStore(db, nil)
	in := testProfile()
	in.ID = profileID
	in.BusinessName = "Padaria Sol Nascente"

	// Only an UPDATE is expected; an INSERT would fail the expectations.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE client_profile")).
		WithArgs(in.OwnerID, in.LogoURL, in.PrimaryColor, in.SecondaryColor, in.InstagramLink,
			in.BusinessName, in.Segment, profileID).
		WillReturnRows(profileRow(in, profileID, time.Now()))

	saved, err := s.SaveProfile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, profileID, saved.ID)
	assert.Equal(t, "Padaria Sol Nascente", saved.BusinessName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProfile_Failures(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewProfileStore(db, nil)
	ctx := context.Background()

	t.Run("duplicate owner", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO client_profile")).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

		saved, err := s.SaveProfile(ctx, testProfile())
		assert.Nil(t, saved)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown id", func(t *testing.T) {
		p := testProfile()
		p.ID = profileID
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE client_profile")).WillReturnError(sql.ErrNoRows)

		saved, err := s.SaveProfile(ctx, p)
		assert.Nil(t, saved)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("database down", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO client_profile")).WillReturnError(errors.New("timeout"))

		saved, err := s.SaveProfile(ctx, testProfile())
		assert.Nil(t, saved)
		assert.True(t, IsQueryFailed(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPosts_NewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM post WHERE client_id = $1 ORDER BY created_at DESC")).
		WithArgs(profileID).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p3", now, profileID, "third", "https://img/3.png", false).
			AddRow("p2", now.Add(-time.Hour), profileID, "second", "https://img/2.png", true).
			AddRow("p1", now.Add(-2*time.Hour), profileID, "first", "https://img/1.png", false))

	posts, err := s.GetPosts(context.Background(), profileID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt), "posts must be newest first")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPosts_EmptyAndFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	query := regexp.QuoteMeta("FROM post WHERE client_id = $1")

	mock.ExpectQuery(query).WithArgs(profileID).WillReturnRows(sqlmock.NewRows(postCols))
	posts, err := s.GetPosts(context.Background(), profileID)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	mock.ExpectQuery(query).WithArgs(profileID).WillReturnError(errors.New("boom"))
	posts, err = s.GetPosts(context.Background(), profileID)
	assert.Empty(t, posts)
	assert.True(t, IsQueryFailed(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePost(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	in := &models.Post{ClientID: profileID, Prompt: "Weekend promo", ImageURL: "https://img/x.png", Status: models.StatusDraft}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO post (client_id, prompt, image_url, status)")).
		WithArgs(profileID, "Weekend promo", "https://img/x.png", false).
		WillReturnRows(sqlmock.NewRows(postCols).AddRow("p1", time.Now(), profileID, "Weekend promo", "https://img/x.png", false))

	saved, err := s.SavePost(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "p1", saved.ID)
	assert.Equal(t, "https://img/x.png", saved.ImageURL)
	assert.False(t, saved.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePostStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	ctx := context.Background()
	update := regexp.QuoteMeta("UPDATE post SET status = $1 WHERE id = $2")

	mock.ExpectExec(update).WithArgs(true, "p2").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, s.UpdatePostStatus(ctx, "p2", true))

	mock.ExpectExec(update).WithArgs(true, "missing").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.UpdatePostStatus(ctx, "missing", true), ErrNotFound)

	mock.ExpectExec(update).WithArgs(false, "p2").WillReturnError(errors.New("boom"))
	assert.True(t, IsQueryFailed(s.UpdatePostStatus(ctx, "p2", false)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePostStatus_ThenGetPosts(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE post SET status = $1 WHERE id = $2")).
		WithArgs(true, "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post WHERE client_id = $1 ORDER BY created_at DESC")).
		WithArgs(profileID).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p3", now, profileID, "third", "https://img/3.png", false).
			AddRow("p2", now.Add(-time.Hour), profileID, "second", "https://img/2.png", true).
			AddRow("p1", now.Add(-2*time.Hour), profileID, "first", "https://img/1.png", true))

	require.NoError(t, s.UpdatePostStatus(ctx, "p2", true))
	posts, err := s.GetPosts(ctx, profileID)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	byID := map[string]bool{}
	for _, p := range posts {
		byID[p.ID] = p.Status
	}
	assert.True(t, byID["p2"])
	assert.False(t, byID["p3"])
	assert.True(t, byID["p1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPost(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewPostStore(db, nil)
	query := regexp.QuoteMeta("FROM post WHERE id = $1")

	mock.ExpectQuery(query).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(postCols).AddRow("p1", time.Now(), profileID, "x", "https://img/x.png", true))
	post, err := s.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, post.Status)

	mock.ExpectQuery(query).WithArgs("nope").WillReturnRows(sqlmock.NewRows(postCols))
	_, err = s.GetPost(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
