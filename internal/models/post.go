package models

import (
	"strings"
	"time"
)

const (
	StatusDraft     = false
	StatusPublished = true
)

// Status filter values accepted by FilterPosts.
const (
	FilterAll       = "all"
	FilterPublished = "true"
	FilterDraft     = "false"
)

// Post is one generated image with its originating prompt. Only Status changes after creation.
type Post struct {
	ID        string    `json:"id,omitempty" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	Status    bool      `json:"status" db:"status"`
}

func StatusLabel(status bool) string {
	if status {
		return "published"
	}
	return "draft"
}

// FilterPosts keeps posts whose prompt contains query (case-insensitive) and whose
// status matches the filter. Order is preserved.
func FilterPosts(posts []Post, query, status string) []Post {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := make([]Post, 0, len(posts))
	for _, p := range posts {
		if query != "" && !strings.Contains(strings.ToLower(p.Prompt), query) {
			continue
		}
		switch status {
		case FilterPublished:
			if !p.Status {
				continue
			}
		case FilterDraft:
			if p.Status {
				continue
			}
		}
		filtered = append(filtered, p)
	}
	return filtered
}

var PromptSuggestions = []string{
	"Announce a weekend special promotion",
	"Showcase our most popular dish",
	"Highlight a seasonal menu item",
	"Promote a special event or celebration",
	"Share a behind-the-scenes look at our kitchen",
	"Announce extended hours",
	"Promote a limited-time offer",
	"Introduce a new menu item",
	"Share customer testimonials",
	"Promote a holiday special",
}
