package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrMissingPrompt = errors.New("prompt is required")
	ErrMissingAPIKey = errors.New("image generation API key is not configured")
	ErrRejected      = errors.New("prompt rejected by image model")
	ErrUnauthorized  = errors.New("image model rejected the API key")
	ErrRateLimited   = errors.New("image model rate limit exceeded")
	ErrEmptyResult   = errors.New("image model returned no image")
	ErrUpstream      = errors.New("image generation failed")
)

const styleDirective = "Style: professional food photography, good lighting, vibrant colors, " +
	"elegant presentation, clean and modern background."

// Request is one generation call. ProfileContext is optional.
type Request struct {
	Prompt         string
	ProfileContext string
}

// Result echoes the prompts alongside the generated image.
type Result struct {
	ImageURL       string
	Prompt         string
	EnhancedPrompt string
	GeneratedAt    time.Time
}

// ImageClient is the subset of the OpenAI client the gateway calls.
type ImageClient interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// Gateway forwards enriched prompts to the image model. It never retries.
type Gateway struct {
	client ImageClient
	logger *slog.Logger
	now    func() time.Time
}

// NewGateway returns a gateway for apiKey. An empty key yields a gateway whose
// every call fails with ErrMissingAPIKey.
func NewGateway(apiKey, baseURL string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{logger: logger, now: time.Now}
	if apiKey == "" {
		return g
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	g.client = openai.NewClientWithConfig(cfg)
	return g
}

// NewGatewayWithClient is used by tests and alternative backends.
func NewGatewayWithClient(client ImageClient, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, logger: logger, now: time.Now}
}

// EnhancePrompt concatenates the raw prompt, the style directive and, when present, the profile line.
func EnhancePrompt(prompt, profileContext string) string {
	var b strings.Builder
	b.WriteString("Create a professional, appetizing food image for social media with the following characteristics:\n")
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\n")
	b.WriteString(styleDirective)
	if ctxLine := strings.TrimSpace(profileContext); ctxLine != "" {
		b.WriteString("\nClient profile: ")
		b.WriteString(ctxLine)
	}
	return b.String()
}

func (g *Gateway) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrMissingPrompt
	}
	if g.client == nil {
		return nil, ErrMissingAPIKey
	}

	enhanced := EnhancePrompt(req.Prompt, req.ProfileContext)
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         enhanced,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		Style:          openai.CreateImageStyleNatural,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		classified := classify(err)
		g.logger.Error("Image generation failed", "error", err, "kind", classified)
		return nil, fmt.Errorf("%w: %v", classified, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		g.logger.Error("Image generation returned no image")
		return nil, ErrEmptyResult
	}

	return &Result{
		ImageURL:       resp.Data[0].URL,
		Prompt:         req.Prompt,
		EnhancedPrompt: enhanced,
		GeneratedAt:    g.now().UTC(),
	}, nil
}

func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusBadRequest:
		return ErrRejected
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return ErrUpstream
}

// HTTPStatus maps a gateway error to the status reported to API callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingPrompt), errors.Is(err, ErrRejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Message is the short human-readable reason for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingPrompt):
		return "Prompt is required"
	case errors.Is(err, ErrMissingAPIKey):
		return "Image generation API key is not configured"
	case errors.Is(err, ErrRejected):
		return "Invalid or too long prompt"
	case errors.Is(err, ErrUnauthorized):
		return "Invalid API key"
	case errors.Is(err, ErrRateLimited):
		return "Request limit exceeded. Try again in a few minutes."
	case errors.Is(err, ErrEmptyResult):
		return "Could not generate the image"
	}
	return "Internal server error while generating image"
}
