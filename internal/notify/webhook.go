package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/illegalcall/foodpost/internal/config"
	"github.com/illegalcall/foodpost/internal/models"
)

// ErrUnavailable means the breaker is open and the webhook is not being called.
var ErrUnavailable = errors.New("webhook temporarily unavailable")

// Notifier delivers post events to an external system.
type Notifier interface {
	Notify(ctx context.Context, event models.PostEvent) error
}

// WebhookClient posts events as JSON to a fixed URL behind a rate limiter and a circuit breaker.
type WebhookClient struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewWebhookClient(cfg config.WebhookConfig, logger *slog.Logger) *WebhookClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = cfg.RateLimit
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &WebhookClient{
		url:     cfg.URL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		logger:  logger,
	}
}

func (c *WebhookClient) Notify(ctx context.Context, event models.PostEvent) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, event)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *WebhookClient) send(ctx context.Context, event models.PostEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.Type)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only logs events. It is used when no webhook URL is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event models.PostEvent) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Post event received", "type", event.Type, "post_id", event.PostID, "profile_id", event.ProfileID)
	return nil
}
