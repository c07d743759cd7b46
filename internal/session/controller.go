// Package session owns the in-memory authentication state of the client and
// keeps it in step with local storage.
package session

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"todocli/internal/auth"
	"todocli/internal/logging"
	"todocli/internal/service"
	"todocli/internal/storage"
)

// Status is the resolution state of the session.
type Status int

const (
	// Unresolved means storage has not been read yet.
	Unresolved Status = iota
	Anonymous
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unresolved"
	}
}

// State is a snapshot of the session.
type State struct {
	Status Status
	User   *service.User
	Token  string

	// Busy is set while a login, signup or logout is in flight.
	Busy bool
}

// IsAuthenticated reports whether both a user and a token are present.
func (s State) IsAuthenticated() bool {
	return s.Status == Authenticated && s.User != nil && s.Token != ""
}

// Authenticator performs the backend side of login, signup and logout.
// *auth.Service implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Result, error)
	Signup(ctx context.Context, name, email, password string) (auth.Result, error)
	Logout(ctx context.Context) error
}

// Controller is the single owner of the session state. It is safe for
// concurrent use.
type Controller struct {
	auth  Authenticator
	store storage.Store

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextSub   int
}

// NewController creates a Controller in the Unresolved state.
func NewController(a Authenticator, store storage.Store) *Controller {
	return &Controller{
		auth:      a,
		store:     store,
		listeners: make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state change. The returned function
// removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Hydrate restores the session from storage. A stored user that cannot be
// decoded is treated as corrupt: both keys are removed and the session stays
// anonymous.
func (c *Controller) Hydrate(ctx context.Context) State {
	log := logging.Ctx(ctx)

	rawUser, hasUser, err := c.store.Get(storage.KeyUser)
	if err != nil {
		log.Warn().Err(err).Msg("read stored user")
	}
	token, hasToken, err := c.store.Get(storage.KeyToken)
	if err != nil {
		log.Warn().Err(err).Msg("read stored token")
	}

	next := State{Status: Anonymous}
	if hasUser {
		user, err := auth.DecodeUser(json.RawMessage(rawUser))
		if err != nil {
			log.Warn().Err(err).Msg("stored session is corrupt, discarding")
			if err := c.store.Remove(storage.KeyUser, storage.KeyToken); err != nil {
				log.Warn().Err(err).Msg("discard stored session")
			}
		} else if hasToken && token != "" {
			next = State{Status: Authenticated, User: &user, Token: token}
		}
	}

	c.set(next)
	log.Debug().Stringer("status", next.Status).Msg("session hydrated")
	return next
}

// Login authenticates and moves to Authenticated. On failure the session is
// anonymous and the error is returned.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.setBusy(true)
	res, err := c.auth.Login(ctx, email, password)
	return c.finishAuth(res, err)
}

// Signup registers, then behaves like Login.
func (c *Controller) Signup(ctx context.Context, name, email, password string) error {
	c.setBusy(true)
	res, err := c.auth.Signup(ctx, name, email, password)
	return c.finishAuth(res, err)
}

func (c *Controller) finishAuth(res auth.Result, err error) error {
	if err != nil {
		c.set(State{Status: Anonymous})
		return err
	}
	user := res.User
	c.set(State{Status: Authenticated, User: &user, Token: res.Token})
	return nil
}

// Logout always ends Anonymous. It also removes the legacy task cache of the
// prior user (or the default cache key when the user is unknown) and the
// legacy users key. When no user is in memory the stored record names the
// cache to remove.
func (c *Controller) Logout(ctx context.Context) {
	prior := c.State()
	c.setBusy(true)

	userID := ""
	if prior.User != nil {
		userID = prior.User.ID
	}
	if userID == "" {
		userID = c.storedUserID()
	}

	if err := c.auth.Logout(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("logout")
	}

	cacheKey := storage.KeyTaskCacheDefault
	if userID != "" {
		cacheKey = storage.TaskCacheKey(userID)
	}
	if err := c.store.Remove(storage.KeyUser, storage.KeyToken, storage.KeyUsers, cacheKey); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("clear local session data")
	}

	c.set(State{Status: Anonymous})
}

// Invalidate drops the in-memory session after the backend rejected it.
// Storage has already been cleared by the gateway.
func (c *Controller) Invalidate(ctx context.Context) {
	if c.State().Status == Anonymous {
		return
	}
	logging.Ctx(ctx).Info().Msg("session rejected by backend")
	c.set(State{Status: Anonymous})
}

func (c *Controller) storedUserID() string {
	raw, ok, err := c.store.Get(storage.KeyUser)
	if err != nil || !ok {
		return ""
	}
	user, err := auth.DecodeUser(json.RawMessage(raw))
	if err != nil {
		return ""
	}
	return user.ID
}

func (c *Controller) setBusy(busy bool) {
	c.update(func(s *State) { s.Busy = busy })
}

func (c *Controller) set(next State) {
	c.update(func(s *State) { *s = next })
}

// update applies fn under the lock, then notifies listeners outside it.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	next := c.state
	fns := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l)
	}
	c.mu.Unlock()

	for _, l := range fns {
		l(next)
	}
}
