// Package rest implements service.TaskService against the task backend's REST API.
package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"todocli/internal/apiclient"
	"todocli/internal/service"
	"todocli/internal/validation"
)

// Doer sends one backend request. *apiclient.Gateway implements it.
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body apiclient.Body, out interface{}) error
}

// UserResolver resolves the id of the signed-in user. *auth.Service implements it.
type UserResolver interface {
	CurrentUserID() (string, error)
}

// Client implements service.TaskService.
type Client struct {
	gw    Doer
	users UserResolver
}

var _ service.TaskService = (*Client)(nil)

// New creates a Client.
func New(gw Doer, users UserResolver) *Client {
	return &Client{gw: gw, users: users}
}

type createRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// tasksPath returns /api/{userId}/tasks followed by the escaped parts.
func (c *Client) tasksPath(parts ...string) (string, error) {
	userID, err := c.users.CurrentUserID()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("/api/")
	b.WriteString(url.PathEscape(userID))
	b.WriteString("/tasks")
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String(), nil
}

// ListTasks returns all tasks of the current user in backend order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	path, err := c.tasksPath()
	if err != nil {
		return nil, err
	}

	var wire []wireTask
	if err := c.gw.Do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}

	tasks := make([]service.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, w.normalize())
	}
	return tasks, nil
}

// CreateTask creates a task. An empty description is omitted.
func (c *Client) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	req := createRequest{Title: strings.TrimSpace(title), Description: description}
	if err := validation.Struct(req); err != nil {
		return service.Task{}, err
	}

	path, err := c.tasksPath()
	if err != nil {
		return service.Task{}, err
	}

	var w wireTask
	if err := c.gw.Do(ctx, http.MethodPost, path, apiclient.JSON(req), &w); err != nil {
		return service.Task{}, err
	}
	return w.normalize(), nil
}

// UpdateTask sends the non-nil fields of upd. The result carries id even if
// the server's record does not. An empty update is rejected without a request.
func (c *Client) UpdateTask(ctx context.Context, id string, upd service.TaskUpdate) (service.Task, error) {
	if upd.IsEmpty() {
		return service.Task{}, &validation.Errors{Fields: []validation.FieldError{{
			Field: "title", Tag: "required_without", Message: "nothing to update",
		}}}
	}
	if upd.Title != nil {
		trimmed := strings.TrimSpace(*upd.Title)
		upd.Title = &trimmed
	}
	if upd.Title != nil && *upd.Title == "" {
		return service.Task{}, &validation.Errors{Fields: []validation.FieldError{{
			Field: "title", Tag: "required", Message: "title is required",
		}}}
	}
	if err := validation.Struct(upd); err != nil {
		return service.Task{}, err
	}

	path, err := c.tasksPath(id)
	if err != nil {
		return service.Task{}, err
	}

	var w wireTask
	if err := c.gw.Do(ctx, http.MethodPut, path, apiclient.JSON(upd), &w); err != nil {
		return service.Task{}, err
	}
	t := w.normalize()
	t.ID = id
	return t, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	path, err := c.tasksPath(id)
	if err != nil {
		return err
	}
	return c.gw.Do(ctx, http.MethodDelete, path, nil, nil)
}

// ToggleTask asks the server to flip completion. The body is an empty object;
// the server decides the new value.
func (c *Client) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	path, err := c.tasksPath(id, "complete")
	if err != nil {
		return service.Task{}, err
	}

	var w wireTask
	if err := c.gw.Do(ctx, http.MethodPatch, path, apiclient.JSON(struct{}{}), &w); err != nil {
		return service.Task{}, err
	}
	t := w.normalize()
	t.ID = id
	return t, nil
}
