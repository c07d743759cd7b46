// Package app wires the client together: storage, gateway, services and the
// controllers the commands drive.
package app

import (
	"context"
	"fmt"
	"net/http"

	"todocli/internal/apiclient"
	"todocli/internal/auth"
	"todocli/internal/backend/rest"
	"todocli/internal/config"
	"todocli/internal/logging"
	"todocli/internal/metrics"
	"todocli/internal/nav"
	"todocli/internal/service"
	"todocli/internal/session"
	"todocli/internal/storage"
	"todocli/internal/todolist"
)

// Options replace parts of the default wiring, mainly for tests.
type Options struct {
	// Store is used instead of opening the configured store. It is not closed
	// by App.Close.
	Store storage.Store

	// HTTPClient is passed to the gateway.
	HTTPClient *http.Client

	// TaskService replaces the REST backend.
	TaskService service.TaskService
}

// App is one client instance.
type App struct {
	Config  *config.Config
	Store   storage.Store
	Gateway *apiclient.Gateway
	Auth    *auth.Service
	Session *session.Controller
	Router  *nav.Router
	Tasks   *todolist.Controller
	Metrics *metrics.Metrics

	ownsStore bool
}

// New builds an App and hydrates the session from storage.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New()}

	if opts.Store != nil {
		a.Store = opts.Store
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		a.Store, a.ownsStore = store, true
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	gw, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIURL,
		HTTPClient: client,
		Store:      a.Store,
		Metrics:    a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Gateway = gw

	a.Auth = auth.New(gw, a.Store)
	a.Session = session.NewController(a.Auth, a.Store)
	a.Router = nav.NewRouter(a.Session, nav.Home)
	gw.OnUnauthorized(a.Session.Invalidate)

	tasks := opts.TaskService
	if tasks == nil {
		tasks = rest.New(gw, a.Auth)
	}
	a.Tasks = todolist.NewController(tasks)
	a.Session.Subscribe(func(s session.State) {
		if s.Status == session.Anonymous {
			a.Tasks.Reset()
		}
	})

	st := a.Session.Hydrate(ctx)
	logging.Ctx(ctx).Debug().
		Str("api_url", cfg.APIURL).
		Stringer("session", st.Status).
		Msg("app ready")
	return a, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.InMemoryStore() {
		return storage.NewMemoryStore(), nil
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return storage.OpenBadger(cfg.StorePath())
}

// Close stops the router and closes the store if App opened it.
func (a *App) Close() error {
	if a.Router != nil {
		a.Router.Close()
	}
	if a.ownsStore && a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
