// Package session holds the authenticated viewer identity for the
// lifetime of a client session. Screens receive a *Context at
// construction instead of reading credentials ad hoc, so the identity
// has one defined lifecycle: set at login, cleared at logout.
package session

import "sync"

// Context is the explicit session state shared by screen-scoped
// components (follow graph, feed paginator). Safe for concurrent use.
type Context struct {
	mu     sync.RWMutex
	userID int64
	loaded bool
}

// NewContext returns an anonymous session.
func NewContext() *Context {
	return &Context{}
}

// SetUser records the authenticated user id. Called once at app start
// or after login.
func (c *Context) SetUser(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.loaded = true
}

// Clear drops the identity. Called at logout.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = 0
	c.loaded = false
}

// UserID returns the current user id and whether a user is logged in.
func (c *Context) UserID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.loaded
}
