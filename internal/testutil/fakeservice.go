// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"todocli/internal/apiclient"
	"todocli/internal/service"
)

// ErrNotFound mirrors the backend's 404 for a missing task.
var ErrNotFound error = &apiclient.ValidationError{Status: 404, Message: "Task not found"}

// FakeService is an in-memory implementation of service.TaskService for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int
	now    func() time.Time

	// Calls counts invocations per method name.
	Calls map[string]int

	// Error injection for testing
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
	ToggleTaskErr error
}

var _ service.TaskService = (*FakeService)(nil)

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		now:    func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		Calls:  make(map[string]int),
	}
}

// AddTask seeds a task and returns its id.
func (f *FakeService) AddTask(title string, completed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := strconv.Itoa(f.nextID)
	f.nextID++
	f.tasks = append(f.tasks, service.Task{
		ID:        id,
		Title:     title,
		Completed: completed,
		CreatedAt: f.now(),
	})
	return id
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeService) count(name string) {
	f.Calls[name]++
}

func (f *FakeService) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ListTasks implements service.TaskService.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

// CreateTask implements service.TaskService.
func (f *FakeService) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}

	t := service.Task{
		ID:          strconv.Itoa(f.nextID),
		Title:       title,
		Description: description,
		CreatedAt:   f.now(),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.TaskService.
func (f *FakeService) UpdateTask(ctx context.Context, id string, upd service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}

	i := f.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	t := &f.tasks[i]
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	now := f.now()
	t.UpdatedAt = &now
	return *t, nil
}

// DeleteTask implements service.TaskService.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}

	i := f.index(id)
	if i < 0 {
		return ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// ToggleTask implements service.TaskService.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ToggleTask")
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}

	i := f.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	t := &f.tasks[i]
	t.Completed = !t.Completed
	now := f.now()
	t.UpdatedAt = &now
	return *t, nil
}
