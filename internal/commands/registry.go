package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds registered commands.
type Registry struct {
	mu    sync.RWMutex
	cmds  map[string]Command // name and aliases map to command
	names []string           // primary names, sorted
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds: make(map[string]Command),
	}
}

// Register adds a command to the registry.
// Returns an error if the name or any alias is empty or already registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for i, key := range keys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("command name must not be empty")
		}
		if _, exists := r.cmds[key]; exists {
			if i == 0 {
				return fmt.Errorf("command already registered: %s", key)
			}
			return fmt.Errorf("command alias already registered: %s", key)
		}
	}

	for _, key := range keys {
		r.cmds[key] = c
	}
	r.names = append(r.names, c.Name())
	sort.Strings(r.names)
	return nil
}

// Find looks up a command by name or alias. Lookup ignores case.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[strings.ToLower(name)]
	return cmd, ok
}

// All returns all unique commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, len(r.names))
	for i, name := range r.names {
		result[i] = r.cmds[name]
	}
	return result
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
