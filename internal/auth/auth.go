// Package auth exchanges credentials for a bearer token and keeps the resulting
// session in local storage.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"todocli/internal/apiclient"
	"todocli/internal/logging"
	"todocli/internal/service"
	"todocli/internal/storage"
	"todocli/internal/validation"
)

// Result is what a successful login or signup returns.
type Result struct {
	User service.User

	// RawUser is the user record exactly as the backend sent it.
	RawUser json.RawMessage

	Token string
}

// Credentials are validated before any request is sent.
type Credentials struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// signupCredentials adds the backend's password length rule.
type signupCredentials struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Doer is the part of the gateway the service needs.
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body apiclient.Body, out interface{}) error
}

// Service talks to the backend auth endpoints.
type Service struct {
	gw    Doer
	store storage.Store
}

// New creates a Service.
func New(gw Doer, store storage.Store) *Service {
	return &Service{gw: gw, store: store}
}

type authResponse struct {
	User        json.RawMessage `json:"user"`
	AccessToken string          `json:"access_token"`
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	creds := Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(creds); err != nil {
		return Result{}, err
	}

	form := url.Values{}
	form.Set("email", creds.Email)
	form.Set("password", creds.Password)
	return s.authenticate(ctx, "/auth/login", form)
}

// Signup registers a new account and logs it in. name is optional.
func (s *Service) Signup(ctx context.Context, name, email, password string) (Result, error) {
	creds := signupCredentials{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validation.Struct(creds); err != nil {
		return Result{}, err
	}

	form := url.Values{}
	form.Set("email", creds.Email)
	form.Set("password", creds.Password)
	if creds.Name != "" {
		form.Set("name", creds.Name)
	}
	return s.authenticate(ctx, "/auth/register", form)
}

func (s *Service) authenticate(ctx context.Context, endpoint string, form url.Values) (Result, error) {
	var resp authResponse
	if err := s.gw.Do(ctx, http.MethodPost, endpoint, apiclient.Form(form), &resp); err != nil {
		return Result{}, err
	}
	if resp.AccessToken == "" {
		return Result{}, errors.New("auth response carried no access token")
	}

	user, err := DecodeUser(resp.User)
	if err != nil {
		return Result{}, fmt.Errorf("auth response: %w", err)
	}

	if err := s.store.Set(storage.KeyToken, resp.AccessToken); err != nil {
		return Result{}, fmt.Errorf("save token: %w", err)
	}
	if err := s.store.Set(storage.KeyUser, string(resp.User)); err != nil {
		return Result{}, fmt.Errorf("save user: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("user_id", user.ID).Msg("session stored")
	return Result{User: user, RawUser: resp.User, Token: resp.AccessToken}, nil
}

// Logout removes the stored session. Storage failures are logged, never returned.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Remove(storage.KeyToken, storage.KeyUser); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("clear session")
	}
	return nil
}

// CurrentUser returns the stored user, or nil when none is stored or the
// stored record cannot be read.
func (s *Service) CurrentUser() (*service.User, error) {
	raw, ok, err := s.store.Get(storage.KeyUser)
	if err != nil || !ok {
		return nil, nil
	}
	user, err := DecodeUser(json.RawMessage(raw))
	if err != nil {
		logging.Debug().Err(err).Msg("stored user unreadable")
		return nil, nil
	}
	return &user, nil
}

// CurrentUserID returns the id of the stored user.
func (s *Service) CurrentUserID() (string, error) {
	user, _ := s.CurrentUser()
	if user == nil || user.ID == "" {
		return "", service.ErrNotAuthenticated
	}
	return user.ID, nil
}

// Token returns the stored bearer token, empty if none.
func (s *Service) Token() string {
	token, _, _ := s.store.Get(storage.KeyToken)
	return token
}

// IsAuthenticated reports whether a non-empty token is stored.
func (s *Service) IsAuthenticated() bool {
	return s.Token() != ""
}

// DecodeUser reads a backend user record. The id may be a JSON string or number
// and must not be empty.
func DecodeUser(raw json.RawMessage) (service.User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return service.User{}, errors.New("user record is empty")
	}

	var rec struct {
		ID    apiclient.FlexID `json:"id"`
		Email string           `json:"email"`
		Name  string           `json:"name"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return service.User{}, fmt.Errorf("decode user: %w", err)
	}
	if rec.ID.String() == "" {
		return service.User{}, errors.New("user record has no id")
	}
	return service.User{ID: rec.ID.String(), Email: rec.Email, Name: rec.Name}, nil
}
