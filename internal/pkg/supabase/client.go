package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("supabase auth is not configured")
)

// User is the subset of a GoTrue user the service relies on.
type User struct {
	ID    string
	Email string
}

// Auth signs users in, up and through password recovery against Supabase GoTrue.
type Auth struct {
	client gotrue.Client
	logger *slog.Logger
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	parts := strings.Split(url, ".")
	return parts[0]
}

// NewAuth builds a GoTrue client. Hosted projects are addressed by reference;
// any other URL (self-hosted, local) is used as the GoTrue base directly.
func NewAuth(supabaseURL, apiKey string, logger *slog.Logger) (*Auth, error) {
	if supabaseURL == "" || apiKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	projectRef := extractProjectRef(supabaseURL)
	client := gotrue.New(projectRef, apiKey)
	if !strings.Contains(supabaseURL, ".supabase.co") {
		client = client.WithCustomGoTrueURL(strings.TrimSuffix(supabaseURL, "/") + "/auth/v1")
	}
	logger.Info("Initialized Supabase auth client", "project", projectRef)
	return &Auth{client: client, logger: logger}, nil
}

// Ping checks that the auth service answers.
func (a *Auth) Ping() error {
	if _, err := a.client.GetSettings(); err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	return nil
}

func (a *Auth) SignIn(email, password string) (*User, error) {
	res, err := a.client.SignInWithEmailPassword(email, password)
	if err != nil {
		if isClientError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if res == nil || res.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	return &User{ID: res.User.ID.String(), Email: res.User.Email}, nil
}

func (a *Auth) SignUp(email, password string) (*User, error) {
	res, err := a.client.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign up failed: %w", err)
	}
	return &User{ID: res.ID.String(), Email: res.Email}, nil
}

// Recover sends a password reset email.
func (a *Auth) Recover(email string) error {
	if err := a.client.Recover(types.RecoverRequest{Email: email}); err != nil {
		return fmt.Errorf("password recovery failed: %w", err)
	}
	return nil
}

// gotrue-go reports HTTP failures as "response status code N: body".
func isClientError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "status code 400") || strings.Contains(msg, "status code 401") ||
		strings.Contains(msg, "status code 422")
}
