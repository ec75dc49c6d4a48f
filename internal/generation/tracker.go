package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTemplate = "generation:%s"

var ErrUnknownGeneration = errors.New("generation not found")

// Record is the tracked snapshot of one flow.
type Record struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	State     State     `json:"state"`
	Prompt    string    `json:"prompt"`
	PostID    string    `json:"post_id,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tracker interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (*Record, error)
}

// RedisTracker keeps records under generation:<id> for ttl.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal generation record: %w", err)
	}
	if err := t.client.Set(ctx, fmt.Sprintf(keyTemplate, rec.ID), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store generation record: %w", err)
	}
	return nil
}

func (t *RedisTracker) Get(ctx context.Context, id string) (*Record, error) {
	payload, err := t.client.Get(ctx, fmt.Sprintf(keyTemplate, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnknownGeneration
		}
		return nil, fmt.Errorf("failed to read generation record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode generation record: %w", err)
	}
	return &rec, nil
}

type noopTracker struct{}

func (noopTracker) Save(context.Context, Record) error { return nil }

func (noopTracker) Get(context.Context, string) (*Record, error) { return nil, ErrUnknownGeneration }
