package session

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenLocal    = "user"
	identityLocal = "identity"
)

// MiddlewareConfig configures the Fiber guard middleware.
type MiddlewareConfig struct {
	Secret      string
	CookieName  string
	LoginPath   string
	DefaultPath string
	Logger      *slog.Logger
}

func (cfg MiddlewareConfig) tokenLookup() string {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	return fmt.Sprintf("header:%s,cookie:%s", fiber.HeaderAuthorization, name)
}

// RequireView guards a view: anonymous callers are redirected to the login view.
func RequireView(cfg MiddlewareConfig) fiber.Handler {
	return newMiddleware(cfg, RequireAuth, func(c *fiber.Ctx) Navigator {
		return NavigatorFunc(func(path string) { _ = c.Redirect(path, fiber.StatusFound) })
	})
}

// RequireAPI guards a JSON endpoint: anonymous callers get 401.
func RequireAPI(cfg MiddlewareConfig) fiber.Handler {
	return newMiddleware(cfg, RequireAuth, func(c *fiber.Ctx) Navigator {
		return NavigatorFunc(func(string) {
			_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Authentication required",
			})
		})
	})
}

// GuestOnly guards login and registration: signed-in callers are sent to the default view.
func GuestOnly(cfg MiddlewareConfig) fiber.Handler {
	return newMiddleware(cfg, RedirectIfAuthenticated, func(c *fiber.Ctx) Navigator {
		return NavigatorFunc(func(path string) { _ = c.Redirect(path, fiber.StatusFound) })
	})
}

func newMiddleware(cfg MiddlewareConfig, mode Mode, navigator func(*fiber.Ctx) Navigator) fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	decide := func(c *fiber.Ctx, id *Identity) error {
		sess := NewContext()
		guard := NewGuard(mode, sess, navigator(c), cfg.LoginPath, cfg.DefaultPath)
		stop := guard.Watch()
		defer stop()

		sess.Resolve(id)
		switch guard.Evaluate() {
		case Render:
			if id != nil {
				c.Locals(identityLocal, id)
			}
			return c.Next()
		default:
			logger.Debug("Session guard redirected", "path", c.Path(), "authenticated", id != nil)
			return nil
		}
	}

	return jwtware.New(jwtware.Config{
		SigningKey:  []byte(cfg.Secret),
		TokenLookup: cfg.tokenLookup(),
		AuthScheme:  "Bearer",
		ContextKey:  tokenLocal,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals(tokenLocal).(*jwt.Token)
			id, err := IdentityFromToken(token)
			if err != nil {
				logger.Info("Rejected session token", "path", c.Path(), "error", err)
			}
			return decide(c, id)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return decide(c, nil)
		},
	})
}

// CurrentIdentity returns the identity a guard attached to the request, or nil.
func CurrentIdentity(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(identityLocal).(*Identity)
	return id
}
