package session

import "sync"

// Identity is the signed-in user.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Snapshot is a point-in-time view of a Context.
type Snapshot struct {
	Loading  bool
	Identity *Identity
}

// Context holds the current identity and whether it is still being resolved.
// It is created loading; Resolve ends the loading phase.
type Context struct {
	mu       sync.Mutex
	loading  bool
	identity *Identity
	subs     []func(Snapshot)
}

func NewContext() *Context {
	return &Context{loading: true}
}

func (c *Context) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Resolve ends loading with id, which may be nil for an anonymous caller.
func (c *Context) Resolve(id *Identity) {
	c.set(false, id)
}

func (c *Context) SignIn(id *Identity) {
	c.set(false, id)
}

func (c *Context) SignOut() {
	c.set(false, nil)
}

// Reload puts the context back into loading, keeping the current identity.
func (c *Context) Reload() {
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()
	c.set(true, id)
}

// Subscribe registers fn for every later change and returns a func that removes it.
func (c *Context) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.subs) {
			c.subs[idx] = nil
		}
	}
}

func (c *Context) set(loading bool, id *Identity) {
	c.mu.Lock()
	c.loading = loading
	c.identity = id
	snap := c.snapshot()
	subs := make([]func(Snapshot), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}

func (c *Context) snapshot() Snapshot {
	var id *Identity
	if c.identity != nil {
		cp := *c.identity
		id = &cp
	}
	return Snapshot{Loading: c.loading, Identity: id}
}
