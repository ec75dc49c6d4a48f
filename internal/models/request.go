package models

import (
	"encoding/json"
	"strings"
	"time"
)

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"password123"`
}

// RegisterRequest carries sign-up credentials
type RegisterRequest struct {
	Email           string `json:"email" example:"user@example.com" validate:"required,email"`
	Password        string `json:"password" example:"password123" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" example:"password123" validate:"eqfield=Password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// JWT token for authentication
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType string `json:"type" example:"Bearer"`
	UserID    string `json:"user_id"`
}

// GenerateRequest is the body of POST /api/generate. ClientProfile is either
// free text or a profile object.
type GenerateRequest struct {
	Prompt        string          `json:"prompt"`
	ClientProfile json.RawMessage `json:"clientProfile,omitempty"`
}

// ProfileContext renders ClientProfile as the descriptor line sent to the image model.
func (r *GenerateRequest) ProfileContext() string {
	raw := strings.TrimSpace(string(r.ClientProfile))
	if raw == "" || raw == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(r.ClientProfile, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var p Profile
	if err := json.Unmarshal(r.ClientProfile, &p); err == nil {
		return p.Descriptor()
	}
	return ""
}

// GeneratedImage is the payload returned by a successful generation
type GeneratedImage struct {
	ImageURL       string    `json:"imageUrl"`
	Prompt         string    `json:"prompt"`
	EnhancedPrompt string    `json:"enhancedPrompt"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// GenerateResponse is the envelope used by the generation endpoint
type GenerateResponse struct {
	Success bool            `json:"success"`
	Data    *GeneratedImage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details string          `json:"details,omitempty"`
}

// GeneratePostRequest is the body of POST /api/posts/generate
type GeneratePostRequest struct {
	Prompt string `json:"prompt"`
}

// UpdateStatusRequest is the body of PATCH /api/posts/:id/status
type UpdateStatusRequest struct {
	Status *bool `json:"status"`
}

// APIResponse represents a generic API response
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}
