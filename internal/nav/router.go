// Package nav holds the client's current view and applies the route guard on
// every navigation and every session change.
package nav

import (
	"context"
	"sync"

	"todocli/internal/logging"
	"todocli/internal/session"
)

// View is a named screen of the client.
type View string

const (
	Home      View = "home"
	Login     View = "login"
	Signup    View = "signup"
	Dashboard View = "dashboard"
)

// RequiresAuth reports whether v needs an authenticated session.
func (v View) RequiresAuth() bool {
	return v == Dashboard
}

// PublicOnly reports whether an authenticated session is sent away from v.
func (v View) PublicOnly() bool {
	return v == Home || v == Login || v == Signup
}

// ResolveRedirect returns where the guard sends a visitor of current. The
// second result is false when no redirect applies, including while the
// session is still unresolved.
func ResolveRedirect(current View, s session.State) (View, bool) {
	switch {
	case s.Status == session.Unresolved:
		return "", false
	case current.RequiresAuth() && !s.IsAuthenticated():
		return Login, true
	case current.PublicOnly() && s.IsAuthenticated():
		return Dashboard, true
	default:
		return "", false
	}
}

// Navigation records one view change.
type Navigation struct {
	From       View
	To         View
	Requested  View // differs from To when the guard redirected
	Redirected bool
}

// SessionSource is the part of the session controller the router needs.
type SessionSource interface {
	State() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Router owns the current view. It is safe for concurrent use.
type Router struct {
	sessions SessionSource

	mu      sync.Mutex
	current View

	unsubscribe func()
}

// NewRouter starts at start and re-checks the guard whenever the session changes.
func NewRouter(sessions SessionSource, start View) *Router {
	r := &Router{sessions: sessions, current: start}
	r.unsubscribe = sessions.Subscribe(r.sessionChanged)
	return r
}

// Close stops following the session.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Current returns the current view.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate moves to to, or wherever the guard redirects it, and returns the
// recorded navigation.
func (r *Router) Navigate(ctx context.Context, to View) Navigation {
	n := r.move(to, r.sessions.State())
	logging.Ctx(ctx).Debug().
		Str("from", string(n.From)).
		Str("to", string(n.To)).
		Bool("redirected", n.Redirected).
		Msg("navigate")
	return n
}

func (r *Router) sessionChanged(s session.State) {
	if _, redirect := ResolveRedirect(r.Current(), s); redirect {
		n := r.move(r.Current(), s)
		logging.Debug().Str("to", string(n.To)).Msg("session change redirected view")
	}
}

func (r *Router) move(requested View, s session.State) Navigation {
	to := requested
	redirected := false
	if target, ok := ResolveRedirect(requested, s); ok {
		to, redirected = target, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := Navigation{From: r.current, To: to, Requested: requested, Redirected: redirected}
	r.current = to
	return n
}
