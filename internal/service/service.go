// Package service defines the backend-agnostic task interface and domain types.
package service

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned when a task operation runs without a
// resolvable current user.
var ErrNotAuthenticated = errors.New("user not authenticated")

// TaskService defines the task operations of the current user.
// All backend task calls go through this interface; controllers and commands
// never talk HTTP directly.
type TaskService interface {
	// ListTasks returns all tasks of the current user in backend order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. description may be empty.
	CreateTask(ctx context.Context, title, description string) (Task, error)

	// UpdateTask applies a partial update and returns the server's record.
	// The returned task always carries id.
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// ToggleTask flips completion on the server and returns the updated record.
	ToggleTask(ctx context.Context, id string) (Task, error)
}
