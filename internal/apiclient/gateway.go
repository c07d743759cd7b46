// Package apiclient is the single chokepoint for backend HTTP calls.
//
// The Gateway attaches the stored bearer token, normalizes every failure into
// ErrUnauthorized, *ValidationError or *TransportError, and clears the stored
// session when the backend answers 401. It never retries.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"todocli/internal/logging"
	"todocli/internal/metrics"
	"todocli/internal/storage"
)

const (
	// DefaultTimeout bounds a whole round trip at the transport level.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 1 << 20
)

// Options configures a Gateway.
type Options struct {
	// BaseURL is the backend root, e.g. http://localhost:8000.
	BaseURL string

	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// Store holds the bearer token. Required.
	Store storage.Store

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Gateway issues backend requests.
type Gateway struct {
	baseURL string
	client  *http.Client
	store   storage.Store
	metrics *metrics.Metrics

	mu             sync.RWMutex
	onUnauthorized []func(context.Context)
}

// New creates a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.Store == nil {
		return nil, errors.New("apiclient: store is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base URL is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Gateway{
		baseURL: base,
		client:  client,
		store:   opts.Store,
		metrics: opts.Metrics,
	}, nil
}

// BaseURL returns the backend root.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// OnUnauthorized registers fn to run after a 401 has cleared the stored session.
func (g *Gateway) OnUnauthorized(fn func(context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUnauthorized = append(g.onUnauthorized, fn)
}

// Do sends method endpoint with body (may be nil) and decodes a JSON response
// into out (may be nil). A 204 or empty response leaves out untouched.
func (g *Gateway) Do(ctx context.Context, method, endpoint string, body Body, out interface{}) error {
	url := g.baseURL + endpoint
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	log := logging.Ctx(ctx).With().Str("method", method).Str("url", url).Logger()

	req, err := g.newRequest(ctx, method, url, body)
	if err != nil {
		log.Error().Err(err).Msg("api request failed")
		return err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.ObserveRequest(method, 0, time.Since(start))
		g.metrics.ObserveFailure("transport")
		terr := &TransportError{Method: method, URL: url, Err: err}
		log.Error().Err(err).Msg("api request failed")
		return terr
	}
	defer resp.Body.Close()
	g.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		g.metrics.ObserveFailure("unauthorized")
		g.expireSession(ctx)
		log.Error().Int("status", resp.StatusCode).Err(ErrUnauthorized).Msg("api request failed")
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.metrics.ObserveFailure("status")
		verr := &ValidationError{Status: resp.StatusCode, Message: errorMessage(resp)}
		log.Error().Int("status", resp.StatusCode).Err(verr).Msg("api request failed")
		return verr
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Debug().Int("status", resp.StatusCode).Msg("api request done")
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Method: method, URL: url, Err: err}
		log.Error().Err(err).Msg("api request failed")
		return terr
	}
	if len(bytes.TrimSpace(data)) == 0 {
		log.Debug().Int("status", resp.StatusCode).Msg("api request done, empty body")
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		err = fmt.Errorf("decode response: %w", err)
		log.Error().Err(err).Msg("api request failed")
		return err
	}

	log.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("api request done")
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, method, url string, body Body) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType = "application/json"
	)
	if body != nil {
		r, ct, err := body.encode()
		if err != nil {
			return nil, err
		}
		reader, contentType = r, ct
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	token, ok, err := g.store.Get(storage.KeyToken)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("read token")
	}
	if ok && token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

// expireSession clears the stored session and runs the unauthorized hooks.
func (g *Gateway) expireSession(ctx context.Context) {
	if err := g.store.Remove(storage.KeyToken, storage.KeyUser); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("clear session after 401")
	}

	g.mu.RLock()
	hooks := make([]func(context.Context), len(g.onUnauthorized))
	copy(hooks, g.onUnauthorized)
	g.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}

// errorMessage extracts the most useful message from a failed response: the
// JSON detail field, else the raw text, else a generic status message.
func errorMessage(resp *http.Response) string {
	generic := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return generic
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if msg := detailMessage(data); msg != "" {
			return msg
		}
		return generic
	}

	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return generic
}

// detailMessage reads {"detail": ...}. detail may be a string or, for request
// validation failures, a list of {"msg": ...} objects.
func detailMessage(data []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if n := len(it.Loc); n > 0 {
				msgs = append(msgs, fmt.Sprint(it.Loc[n-1])+": "+it.Msg)
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	if string(payload.Detail) == "null" {
		return ""
	}
	return string(payload.Detail)
}
