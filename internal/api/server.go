package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/foodpost/internal/config"
	"github.com/illegalcall/foodpost/internal/events"
	"github.com/illegalcall/foodpost/internal/generation"
	"github.com/illegalcall/foodpost/internal/metrics"
	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/pkg/supabase"
	"github.com/illegalcall/foodpost/internal/session"
	"github.com/illegalcall/foodpost/internal/storage"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

type PostRepository interface {
	GetPosts(ctx context.Context, profileID string) ([]models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	SavePost(ctx context.Context, p *models.Post) (*models.Post, error)
	UpdatePostStatus(ctx context.Context, postID string, status bool) error
}

type Authenticator interface {
	SignIn(email, password string) (*supabase.User, error)
	SignUp(email, password string) (*supabase.User, error)
	Recover(email string) error
}

// Deps are the collaborators the server is wired with. Tracker, Publisher and
// Metrics may be nil.
type Deps struct {
	Profiles  ProfileRepository
	Posts     PostRepository
	Logos     storage.LogoStore
	Images    generation.ImageGenerator
	Auth      Authenticator
	Tracker   generation.Tracker
	Publisher events.Publisher
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

type Server struct {
	app         *fiber.App
	cfg         *config.Config
	logger      *slog.Logger
	profiles    ProfileRepository
	posts       PostRepository
	logos       storage.LogoStore
	images      generation.ImageGenerator
	auth        Authenticator
	generations *generation.Service
	publisher   events.Publisher
	metrics     *metrics.Recorder
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	opts := []generation.Option{
		generation.WithPublisher(publisher),
		generation.WithLogger(log),
	}
	if deps.Tracker != nil {
		opts = append(opts, generation.WithTracker(deps.Tracker))
	}
	if deps.Metrics != nil {
		opts = append(opts, generation.WithObserver(deps.Metrics))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Storage.MaxLogoSize) + 1<<20,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	if cfg.Server.MaxRequests > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.MaxRequests,
			Expiration: cfg.Server.RequestTimeout,
		}))
	}

	server := &Server{
		app:         app,
		cfg:         cfg,
		logger:      log,
		profiles:    deps.Profiles,
		posts:       deps.Posts,
		logos:       deps.Logos,
		images:      deps.Images,
		auth:        deps.Auth,
		generations: generation.NewService(deps.Images, deps.Posts, opts...),
		publisher:   publisher,
		metrics:     deps.Metrics,
	}

	server.setupRoutes()
	return server
}

func (s *Server) sessionConfig() session.MiddlewareConfig {
	return session.MiddlewareConfig{
		Secret:      s.cfg.JWT.Secret,
		CookieName:  s.cfg.JWT.CookieName,
		LoginPath:   s.cfg.Server.LoginPath,
		DefaultPath: s.cfg.Server.DefaultPath,
		Logger:      s.logger,
	}
}

func (s *Server) setupRoutes() {
	sc := s.sessionConfig()
	requireAPI := session.RequireAPI(sc)
	requireView := session.RequireView(sc)
	guestOnly := session.GuestOnly(sc)

	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	}
	if local, ok := s.logos.(*storage.LocalStorage); ok {
		s.app.Static("/uploads", local.Dir())
	}

	// Views
	s.app.Get("/", s.handleHomeView)
	s.app.Get("/profile", requireView, s.handleProfileView)
	s.app.Get("/generate", requireView, s.handleGenerateView)
	s.app.Get("/history", requireView, s.handleHistoryView)
	s.app.Get("/auth/login", guestOnly, s.handleAuthView)
	s.app.Get("/auth/register", guestOnly, s.handleAuthView)

	api := s.app.Group("/api")

	// Public routes
	api.Get("/generate", s.handleGenerateInfo)
	api.Post("/generate", s.handleGenerate)
	api.Get("/segments", s.handleSegments)
	api.Get("/prompt-suggestions", s.handlePromptSuggestions)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/forgot-password", s.handleForgotPassword)

	// Protected routes
	api.Post("/auth/logout", requireAPI, s.handleLogout)
	api.Get("/profile", requireAPI, s.handleGetProfile)
	api.Put("/profile", requireAPI, s.handleSaveProfile)
	api.Post("/profile/logo", requireAPI, s.handleUploadLogo)
	api.Post("/posts/generate", requireAPI, s.handleGeneratePost)
	api.Get("/generations/:id", requireAPI, s.handleGetGeneration)
	api.Get("/posts", requireAPI, s.handleListPosts)
	api.Patch("/posts/:id/status", requireAPI, s.handleUpdatePostStatus)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.APIResponse{Success: false, Error: message})
}

// errorDetail exposes internal error text outside production only.
func (s *Server) errorDetail(err error) string {
	if s.cfg.IsProduction() || err == nil {
		return ""
	}
	return err.Error()
}
