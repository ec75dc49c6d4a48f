package models

import "time"

const (
	EventPostCreated   = "post.created"
	EventPostPublished = "post.published"
)

// PostEvent is published to Kafka whenever a post is created or its status changes.
type PostEvent struct {
	Type       string    `json:"type"`
	PostID     string    `json:"post_id"`
	ProfileID  string    `json:"profile_id"`
	ImageURL   string    `json:"image_url"`
	Status     bool      `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
