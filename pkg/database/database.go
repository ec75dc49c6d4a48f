package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/foodpost/internal/config"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func NewClients(dbCfg config.DatabaseConfig, redisCfg config.RedisConfig) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// Schema mirrors the Supabase tables. fk_id_user is unique: one profile per owner.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS client_profile (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	fk_id_user UUID NOT NULL UNIQUE,
	logo_url TEXT NOT NULL DEFAULT '',
	primary_color TEXT NOT NULL DEFAULT '',
	secondary_color TEXT NOT NULL DEFAULT '',
	instagram_link TEXT NOT NULL DEFAULT '',
	business_name TEXT NOT NULL DEFAULT '',
	segment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS post (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	client_id UUID NOT NULL REFERENCES client_profile(id),
	prompt TEXT NOT NULL,
	image_url TEXT NOT NULL,
	status BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS post_client_created_idx ON post (client_id, created_at DESC);
`

func (c *Clients) CreateTables() error {
	if _, err := c.DB.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("✅ Profile and post tables are ready!")
	return nil
}
