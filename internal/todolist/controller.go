// Package todolist holds the state of the task list view and runs its
// operations against a service.TaskService.
//
// Mutations are applied only after the server confirms them. When two calls
// for the same task overlap, whichever completes last is what the list shows.
package todolist

import (
	"context"
	"sync"

	"todocli/internal/logging"
	"todocli/internal/service"
)

// State is a snapshot of the task list view.
type State struct {
	Items     []service.Task
	Filter    service.Filter
	IsLoading bool
	Error     string
}

// Visible returns the items that pass the filter, in order.
func (s State) Visible() []service.Task {
	return s.Filter.Apply(s.Items)
}

// Remaining counts incomplete items regardless of the filter.
func (s State) Remaining() int {
	n := 0
	for _, t := range s.Items {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Controller owns the task list state. It is safe for concurrent use; network
// calls run outside the lock.
type Controller struct {
	tasks service.TaskService

	mu        sync.Mutex
	state     State
	loaded    bool
	listeners map[int]func(State)
	nextSub   int
}

// NewController creates an empty list showing all tasks.
func NewController(tasks service.TaskService) *Controller {
	return &Controller{
		tasks:     tasks,
		state:     State{Filter: service.FilterAll},
		listeners: make(map[int]func(State)),
	}
}

// State returns a snapshot. The Items slice is a copy.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// snapshot copies the state. The caller holds c.mu.
func (c *Controller) snapshot() State {
	s := c.state
	s.Items = make([]service.Task, len(c.state.Items))
	copy(s.Items, c.state.Items)
	return s
}

// Loaded reports whether a fetch has succeeded at least once.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Find returns the item with id.
func (c *Controller) Find(id string) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.state.Items {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Subscribe registers fn to receive every state change.
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

// Fetch replaces the items with the server's list.
func (c *Controller) Fetch(ctx context.Context) error {
	c.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	tasks, err := c.tasks.ListTasks(ctx)
	if err != nil {
		c.fail(ctx, "fetch", err, true)
		return err
	}

	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	c.update(func(s *State) {
		s.Items = tasks
		s.IsLoading = false
	})
	return nil
}

// Add creates a task and appends the server's record.
func (c *Controller) Add(ctx context.Context, title, description string) (service.Task, error) {
	task, err := c.tasks.CreateTask(ctx, title, description)
	if err != nil {
		c.fail(ctx, "add", err, false)
		return service.Task{}, err
	}
	c.update(func(s *State) {
		s.Items = append(s.Items, task)
	})
	return task, nil
}

// Toggle flips completion on the server and replaces the local copy.
func (c *Controller) Toggle(ctx context.Context, id string) (service.Task, error) {
	task, err := c.tasks.ToggleTask(ctx, id)
	if err != nil {
		c.fail(ctx, "toggle", err, false)
		return service.Task{}, err
	}
	c.replace(task)
	return task, nil
}

// Update applies a partial update and replaces the local copy.
func (c *Controller) Update(ctx context.Context, id string, upd service.TaskUpdate) (service.Task, error) {
	task, err := c.tasks.UpdateTask(ctx, id, upd)
	if err != nil {
		c.fail(ctx, "update", err, false)
		return service.Task{}, err
	}
	c.replace(task)
	return task, nil
}

// UpdateTitle changes only the title.
func (c *Controller) UpdateTitle(ctx context.Context, id, title string) (service.Task, error) {
	return c.Update(ctx, id, service.TaskUpdate{Title: &title})
}

// Delete removes the task once the server confirms.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.tasks.DeleteTask(ctx, id); err != nil {
		c.fail(ctx, "delete", err, false)
		return err
	}
	c.update(func(s *State) {
		kept := s.Items[:0:0]
		for _, t := range s.Items {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.Items = kept
	})
	return nil
}

// Reset drops all items and the error, and forgets that a fetch happened.
// The filter is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
	c.update(func(s *State) {
		s.Items = nil
		s.Error = ""
		s.IsLoading = false
	})
}

// SetFilter changes which items are visible. No request is made.
func (c *Controller) SetFilter(f service.Filter) {
	c.update(func(s *State) { s.Filter = f })
}

func (c *Controller) replace(task service.Task) {
	c.update(func(s *State) {
		items := make([]service.Task, len(s.Items))
		copy(items, s.Items)
		for i := range items {
			if items[i].ID == task.ID {
				items[i] = task
			}
		}
		s.Items = items
	})
}

// fail records err as the visible error. Only fetch owns the loading flag.
func (c *Controller) fail(ctx context.Context, op string, err error, clearLoading bool) {
	logging.Ctx(ctx).Debug().Err(err).Str("op", op).Msg("task list operation failed")
	c.update(func(s *State) {
		s.Error = err.Error()
		if clearLoading {
			s.IsLoading = false
		}
	})
}

// update applies fn under the lock, then notifies listeners outside it.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	next := c.snapshot()
	fns := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l)
	}
	c.mu.Unlock()

	for _, l := range fns {
		l(next)
	}
}
