package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/illegalcall/foodpost/internal/events"
	"github.com/illegalcall/foodpost/internal/imagegen"
	"github.com/illegalcall/foodpost/internal/models"
)

// State is a flow's position in Idle → Submitting → {Succeeded, Failed}.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// MinPromptLength is the shortest prompt, in runes after trimming, a flow accepts.
const MinPromptLength = 5

var (
	ErrPromptTooShort    = fmt.Errorf("prompt must be at least %d characters", MinPromptLength)
	ErrMissingProfileID  = errors.New("profile has no identifier")
	ErrProfileIncomplete = errors.New("profile is incomplete")
	ErrSaveFailed        = errors.New("failed to save post")
	ErrNotIdle           = errors.New("generation already submitted")
)

// ImageGenerator produces one image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req imagegen.Request) (*imagegen.Result, error)
}

// PostSaver persists a generated post.
type PostSaver interface {
	SavePost(ctx context.Context, post *models.Post) (*models.Post, error)
}

// Observer records the outcome and duration of each finished flow.
type Observer interface {
	ObserveGeneration(outcome string, seconds float64)
}

// Service holds what every flow shares.
type Service struct {
	images    ImageGenerator
	posts     PostSaver
	tracker   Tracker
	publisher events.Publisher
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTracker records flow state transitions in t.
func WithTracker(t Tracker) Option { return func(s *Service) { s.tracker = t } }

// WithPublisher publishes post.created for each saved post.
func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithObserver reports finished flows to o.
func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService builds a Service with no-op tracking and publishing unless options say otherwise.
func NewService(images ImageGenerator, posts PostSaver, opts ...Option) *Service {
	s := &Service{
		images:    images,
		posts:     posts,
		tracker:   noopTracker{},
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tracker returns the tracker flows record their state in.
func (s *Service) Tracker() Tracker {
	return s.tracker
}

// NewFlow starts an Idle flow bound to profile.
func (s *Service) NewFlow(profile *models.Profile) *Flow {
	return &Flow{
		id:      uuid.NewString(),
		svc:     s,
		profile: profile,
		state:   StateIdle,
	}
}

// Flow turns one user prompt into one persisted post. It never retries.
type Flow struct {
	id      string
	svc     *Service
	profile *models.Profile

	mu     sync.Mutex
	state  State
	post   *models.Post
	reason string
}

// ID is the generation id used as the tracker key.
func (f *Flow) ID() string { return f.id }

// State is the flow's current position.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Post is the saved post once the flow has succeeded.
func (f *Flow) Post() *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.post
}

// Reason is the human-readable failure reason once the flow has failed.
func (f *Flow) Reason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason
}

// Reset returns a terminal flow to Idle so the user can resubmit.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSucceeded || f.state == StateFailed {
		f.state = StateIdle
		f.post = nil
		f.reason = ""
	}
}

// ValidatePrompt checks the prompt before anything leaves the process.
func ValidatePrompt(prompt string) error {
	if utf8.RuneCountInString(strings.TrimSpace(prompt)) < MinPromptLength {
		return ErrPromptTooShort
	}
	return nil
}

func (f *Flow) Run(ctx context.Context, prompt string) (*models.Post, error) {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return nil, ErrNotIdle
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	started := time.Now()
	prompt = strings.TrimSpace(prompt)
	f.track(ctx, Record{State: StateSubmitting, Prompt: prompt})

	post, err := f.run(ctx, prompt)
	if err != nil {
		f.finish(ctx, StateFailed, nil, err, prompt, started)
		return nil, err
	}
	f.finish(ctx, StateSucceeded, post, nil, prompt, started)

	if err := f.svc.publisher.Publish(ctx, models.PostEvent{
		Type:       models.EventPostCreated,
		PostID:     post.ID,
		ProfileID:  post.ClientID,
		ImageURL:   post.ImageURL,
		Status:     post.Status,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		f.svc.logger.Error("Failed to publish post event", "post_id", post.ID, "error", err)
	}
	return post, nil
}

func (f *Flow) run(ctx context.Context, prompt string) (*models.Post, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if f.profile == nil || f.profile.ID == "" {
		return nil, ErrMissingProfileID
	}
	if !f.profile.IsComplete() {
		return nil, ErrProfileIncomplete
	}

	result, err := f.svc.images.Generate(ctx, imagegen.Request{
		Prompt:         prompt,
		ProfileContext: f.profile.Descriptor(),
	})
	if err != nil {
		return nil, err
	}

	saved, err := f.svc.posts.SavePost(ctx, &models.Post{
		ClientID: f.profile.ID,
		Prompt:   prompt,
		ImageURL: result.ImageURL,
		Status:   models.StatusDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return saved, nil
}

func (f *Flow) finish(ctx context.Context, state State, post *models.Post, err error, prompt string, started time.Time) {
	f.mu.Lock()
	f.state = state
	f.post = post
	if err != nil {
		f.reason = Reason(err)
	}
	reason := f.reason
	f.mu.Unlock()

	rec := Record{State: state, Prompt: prompt, Error: reason}
	if post != nil {
		rec.PostID = post.ID
		rec.ImageURL = post.ImageURL
	}
	f.track(ctx, rec)

	if f.svc.observer != nil {
		f.svc.observer.ObserveGeneration(string(state), time.Since(started).Seconds())
	}
	if err != nil {
		f.svc.logger.Info("Post generation failed", "generation_id", f.id, "reason", reason, "error", err)
	} else {
		f.svc.logger.Info("Post generated", "generation_id", f.id, "post_id", post.ID)
	}
}

func (f *Flow) track(ctx context.Context, rec Record) {
	rec.ID = f.id
	if f.profile != nil {
		rec.ProfileID = f.profile.ID
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := f.svc.tracker.Save(ctx, rec); err != nil {
		f.svc.logger.Error("Failed to track generation", "generation_id", f.id, "state", rec.State, "error", err)
	}
}

// Reason renders err as a short message for the user.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrPromptTooShort):
		return fmt.Sprintf("Please enter at least %d characters", MinPromptLength)
	case errors.Is(err, ErrMissingProfileID):
		return "Save your business profile before generating posts"
	case errors.Is(err, ErrProfileIncomplete):
		return "Complete your business profile before generating posts"
	case errors.Is(err, ErrSaveFailed):
		return "Failed to save post"
	}
	return imagegen.Message(err)
}
