package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// backendTimeLayout is the zone-less timestamp format the real backend emits.
const backendTimeLayout = "2006-01-02T15:04:05.000000"

type fakeUser struct {
	ID       string
	Email    string
	Name     string
	Password string
}

type fakeTask struct {
	ID          int
	UserID      string
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t fakeTask) wire() map[string]interface{} {
	return map[string]interface{}{
		"id":          t.ID,
		"user_id":     t.UserID,
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"created_at":  t.CreatedAt.UTC().Format(backendTimeLayout),
		"updated_at":  t.UpdatedAt.UTC().Format(backendTimeLayout),
	}
}

// FakeBackend is an in-process task backend speaking the same REST contract as
// the real one: multipart login and register, HS256 bearer tokens, integer task
// ids and user-scoped task routes.
type FakeBackend struct {
	Server *httptest.Server

	secret []byte

	mu     sync.Mutex
	users  map[string]*fakeUser // by email
	tasks  []fakeTask
	nextID int

	// Requests counts handled requests by "METHOD /pattern".
	Requests map[string]int

	// FailNext, when non-zero, makes the next task request answer with that status.
	FailNext int
}

// NewFakeBackend starts a FakeBackend. It is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		secret:   []byte(uuid.NewString()),
		users:    make(map[string]*fakeUser),
		nextID:   1,
		Requests: make(map[string]int),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server's base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(b.countRequests)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", b.register)
		r.Post("/login", b.login)
	})

	r.Route("/api/{userID}/tasks", func(r chi.Router) {
		r.Use(b.requireToken)
		r.Get("/", b.listTasks)
		r.Post("/", b.createTask)
		r.Put("/{taskID}", b.updateTask)
		r.Delete("/{taskID}", b.deleteTask)
		r.Patch("/{taskID}/complete", b.toggleTask)
	})
	return r
}

func (b *FakeBackend) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		b.mu.Lock()
		b.Requests[r.Method+" "+pattern]++
		b.mu.Unlock()
	})
}

// AddUser registers an account directly and returns its id.
func (b *FakeBackend) AddUser(email, password, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &fakeUser{ID: uuid.NewString(), Email: email, Name: name, Password: password}
	b.users[email] = u
	return u.ID
}

// AddTask seeds a task for userID and returns its id.
func (b *FakeBackend) AddTask(userID, title string, completed bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	t := fakeTask{ID: b.nextID, UserID: userID, Title: title, Completed: completed, CreatedAt: now, UpdatedAt: now}
	b.nextID++
	b.tasks = append(b.tasks, t)
	return t.ID
}

// TaskCount returns the number of tasks owned by userID.
func (b *FakeBackend) TaskCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, t := range b.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// Token issues a bearer token for the account with email.
func (b *FakeBackend) Token(email string, ttl time.Duration) string {
	b.mu.Lock()
	u := b.users[email]
	b.mu.Unlock()
	if u == nil {
		return ""
	}
	tok, err := b.issueToken(u, ttl)
	if err != nil {
		return ""
	}
	return tok
}

func (b *FakeBackend) issueToken(u *fakeUser, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    u.ID,
		"email": u.Email,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response encoding failure is not recoverable in test fake
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (b *FakeBackend) authResponse(w http.ResponseWriter, u *fakeUser) {
	tok, err := b.issueToken(u, 24*time.Hour)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         map[string]string{"id": u.ID, "email": u.Email, "name": u.Name},
		"access_token": tok,
	})
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Expected form data")
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")
	name := r.FormValue("name")

	b.mu.Lock()
	if _, exists := b.users[email]; exists {
		b.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Email already exists")
		return
	}
	if len(password) < 6 {
		b.mu.Unlock()
		writeDetail(w, http.StatusUnprocessableEntity, "Password must be at least 6 characters long")
		return
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u := &fakeUser{ID: uuid.NewString(), Email: email, Name: name, Password: password}
	b.users[email] = u
	b.mu.Unlock()

	b.authResponse(w, u)
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Expected form data")
		return
	}

	b.mu.Lock()
	u := b.users[r.FormValue("email")]
	b.mu.Unlock()
	if u == nil || u.Password != r.FormValue("password") {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	b.authResponse(w, u)
}

// requireToken checks the bearer token and that it belongs to the path's user.
func (b *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if id, _ := claims["id"].(string); id != chi.URLParam(r, "userID") {
			writeDetail(w, http.StatusForbidden, "Not authorized to access these tasks")
			return
		}

		b.mu.Lock()
		fail := b.FailNext
		b.FailNext = 0
		b.mu.Unlock()
		if fail != 0 {
			writeDetail(w, fail, http.StatusText(fail))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// findTask returns the index of the user's task from the path, or -1.
// The caller holds b.mu.
func (b *FakeBackend) findTask(r *http.Request) int {
	id, err := strconv.Atoi(chi.URLParam(r, "taskID"))
	if err != nil {
		return -1
	}
	userID := chi.URLParam(r, "userID")
	for i, t := range b.tasks {
		if t.ID == id && t.UserID == userID {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) listTasks(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	b.mu.Lock()
	out := make([]map[string]interface{}, 0)
	for _, t := range b.tasks {
		if t.UserID == userID {
			out = append(out, t.wire())
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

type taskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func decodePayload(w http.ResponseWriter, r *http.Request) (taskPayload, bool) {
	var p taskPayload
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeDetail(w, http.StatusUnprocessableEntity, "Expected JSON body")
		return p, false
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return p, false
	}
	return p, true
}

func (b *FakeBackend) createTask(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if p.Title == nil || *p.Title == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{{"loc": []string{"body", "title"}, "msg": "field required"}},
		})
		return
	}

	b.mu.Lock()
	now := time.Now()
	t := fakeTask{
		ID:          b.nextID,
		UserID:      chi.URLParam(r, "userID"),
		Title:       *p.Title,
		Description: p.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.nextID++
	b.tasks = append(b.tasks, t)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, t.wire())
}

func (b *FakeBackend) updateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	i := b.findTask(r)
	if i < 0 {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	t := &b.tasks[i]
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = time.Now()
	out := t.wire()
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) deleteTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	i := b.findTask(r)
	if i < 0 {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) toggleTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	i := b.findTask(r)
	if i < 0 {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	t := &b.tasks[i]
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now()
	out := t.wire()
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}
