package session

import "sync"

type Mode int

const (
	// RequireAuth sends anonymous callers to the login view.
	RequireAuth Mode = iota
	// RedirectIfAuthenticated sends signed-in callers away from login and registration.
	RedirectIfAuthenticated
)

type Decision int

const (
	Wait Decision = iota
	Render
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Navigator performs the navigation a guard decides on.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Guard decides whether a protected view may render. It navigates at most once
// per loading-state transition, however often it is evaluated.
type Guard struct {
	mode        Mode
	sess        *Context
	nav         Navigator
	loginPath   string
	defaultPath string

	mu         sync.Mutex
	navigated  bool
	lastLoaded bool
}

func NewGuard(mode Mode, sess *Context, nav Navigator, loginPath, defaultPath string) *Guard {
	return &Guard{
		mode:        mode,
		sess:        sess,
		nav:         nav,
		loginPath:   loginPath,
		defaultPath: defaultPath,
	}
}

// Watch re-evaluates the guard on every session change until the returned func is called.
func (g *Guard) Watch() func() {
	return g.sess.Subscribe(func(s Snapshot) { g.evaluate(s) })
}

// Evaluate applies the guard to the session's current state.
func (g *Guard) Evaluate() Decision {
	return g.evaluate(g.sess.State())
}

func (g *Guard) evaluate(s Snapshot) Decision {
	g.mu.Lock()
	if s.Loading {
		g.navigated = false
		g.lastLoaded = false
		g.mu.Unlock()
		return Wait
	}
	if !g.lastLoaded {
		g.navigated = false
		g.lastLoaded = true
	}

	target, redirect := g.target(s)
	if !redirect {
		g.navigated = false
		g.mu.Unlock()
		return Render
	}
	first := !g.navigated
	g.navigated = true
	g.mu.Unlock()

	if first {
		g.nav.Navigate(target)
	}
	return Redirect
}

func (g *Guard) target(s Snapshot) (string, bool) {
	switch g.mode {
	case RedirectIfAuthenticated:
		return g.defaultPath, s.Identity != nil
	default:
		return g.loginPath, s.Identity == nil
	}
}
