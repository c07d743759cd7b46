package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"todocli/internal/apiclient"
	"todocli/internal/service"
	"todocli/internal/storage"
	"todocli/internal/validation"
)

// recordingDoer captures the last request and answers with a canned body or error.
type recordingDoer struct {
	method   string
	endpoint string
	calls    int

	response string
	err      error
}

func (d *recordingDoer) Do(ctx context.Context, method, endpoint string, body apiclient.Body, out interface{}) error {
	d.calls++
	d.method, d.endpoint = method, endpoint
	if d.err != nil {
		return d.err
	}
	return json.Unmarshal([]byte(d.response), out)
}

const okResponse = `{"user":{"id":"u-1","email":"ada@example.com","name":"Ada","plan":"free"},"access_token":"tok-1"}`

func TestLogin_PersistsSession(t *testing.T) {
	store := storage.NewMemoryStore()
	doer := &recordingDoer{response: okResponse}
	svc := New(doer, store)

	res, err := svc.Login(context.Background(), " ada@example.com ", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doer.method != http.MethodPost || doer.endpoint != "/auth/login" {
		t.Errorf("expected POST /auth/login, got %s %s", doer.method, doer.endpoint)
	}
	if res.Token != "tok-1" || res.User.ID != "u-1" || res.User.Name != "Ada" {
		t.Errorf("unexpected result: %+v", res)
	}

	if tok, _, _ := store.Get(storage.KeyToken); tok != "tok-1" {
		t.Errorf("expected token stored, got %q", tok)
	}
	raw, _, _ := store.Get(storage.KeyUser)
	if !strings.Contains(raw, `"plan":"free"`) {
		t.Errorf("expected raw user record stored verbatim, got %s", raw)
	}
	if !svc.IsAuthenticated() {
		t.Error("expected authenticated after login")
	}
}

// formServer answers every request with okResponse and records the parsed form.
func formServer(t *testing.T, got *[]url.Values, paths *[]string) *apiclient.Gateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		*got = append(*got, r.MultipartForm.Value)
		*paths = append(*paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okResponse))
	}))
	t.Cleanup(srv.Close)

	gw, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}
	return gw
}

func TestLogin_SendsMultipartForm(t *testing.T) {
	var forms []url.Values
	var paths []string
	svc := New(formServer(t, &forms, &paths), storage.NewMemoryStore())

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected 1 request, got %d", len(forms))
	}
	if forms[0].Get("email") != "ada@example.com" || forms[0].Get("password") != "secret" {
		t.Errorf("unexpected form: %v", forms[0])
	}
	if paths[0] != "/auth/login" {
		t.Errorf("expected /auth/login, got %s", paths[0])
	}
}

func TestLogin_ValidatesBeforeRequest(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret"},
		{"malformed email", "not-an-email", "secret"},
		{"missing password", "ada@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &recordingDoer{response: okResponse}
			svc := New(doer, storage.NewMemoryStore())

			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if !validation.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if doer.calls != 0 {
				t.Error("no request should be sent for invalid input")
			}
		})
	}
}

func TestLogin_PropagatesGatewayError(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := New(&recordingDoer{err: apiclient.ErrUnauthorized}, store)

	_, err := svc.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Error("no session should be stored after a failed login")
	}
}

func TestSignup_PasswordLengthAndName(t *testing.T) {
	doer := &recordingDoer{response: okResponse}
	_, err := New(doer, storage.NewMemoryStore()).Signup(context.Background(), "Ada", "ada@example.com", "12345")
	if !validation.IsValidationError(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if !strings.Contains(err.Error(), "at least 6") {
		t.Errorf("expected length message, got %q", err.Error())
	}
	if doer.calls != 0 {
		t.Error("no request should be sent for invalid input")
	}

	var forms []url.Values
	var paths []string
	svc := New(formServer(t, &forms, &paths), storage.NewMemoryStore())

	if _, err := svc.Signup(context.Background(), "", "ada@example.com", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Signup(context.Background(), "Ada", "ada@example.com", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(forms))
	}
	if paths[0] != "/auth/register" {
		t.Errorf("expected /auth/register, got %s", paths[0])
	}
	if _, ok := forms[0]["name"]; ok {
		t.Error("empty name must not be sent")
	}
	if forms[1].Get("name") != "Ada" {
		t.Errorf("expected name in form, got %v", forms[1])
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Set(storage.KeyToken, "tok")
	store.Set(storage.KeyUser, `{"id":"u-1"}`)
	svc := New(&recordingDoer{}, store)

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
	if svc.IsAuthenticated() {
		t.Error("expected token removed")
	}
	if u, _ := svc.CurrentUser(); u != nil {
		t.Error("expected user removed")
	}

	store.Close()
	if err := svc.Logout(context.Background()); err != nil {
		t.Errorf("logout must swallow storage errors, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := New(&recordingDoer{}, store)

	if u, err := svc.CurrentUser(); u != nil || err != nil {
		t.Errorf("expected none for empty store, got %v %v", u, err)
	}
	if _, err := svc.CurrentUserID(); !errors.Is(err, service.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	store.Set(storage.KeyUser, "{not json")
	if u, err := svc.CurrentUser(); u != nil || err != nil {
		t.Errorf("expected none for corrupt record, got %v %v", u, err)
	}

	store.Set(storage.KeyUser, `{"email":"a@b.co"}`)
	if u, _ := svc.CurrentUser(); u != nil {
		t.Errorf("expected none for a record without id, got %+v", u)
	}

	store.Set(storage.KeyUser, `{"id":42,"email":"a@b.co"}`)
	id, err := svc.CurrentUserID()
	if err != nil || id != "42" {
		t.Errorf("expected numeric id 42, got %q %v", id, err)
	}
	// idempotent
	again, _ := svc.CurrentUserID()
	if again != id {
		t.Errorf("expected same id on second read, got %q", again)
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u-1",
		"email": "ada@example.com",
		"exp":   exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("some-secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	c, err := ParseClaims(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.UserID != "u-1" || c.Email != "ada@example.com" {
		t.Errorf("unexpected claims: %+v", c)
	}
	if !c.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, c.ExpiresAt)
	}
	if c.Expired(time.Now()) {
		t.Error("token should not be expired yet")
	}
	if !c.Expired(exp.Add(time.Minute)) {
		t.Error("token should be expired after exp")
	}

	if _, err := ParseClaims("opaque-token"); err == nil {
		t.Error("expected error for non-JWT token")
	}
}
