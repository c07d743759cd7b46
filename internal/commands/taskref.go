package commands

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"todocli/internal/service"
	"todocli/internal/todolist"
)

// TaskRef is a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the filtered listing
	ID  string // server id given with --id; Num is 0 then
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired error = usageError("task reference required")

// ParseTaskRef parses the task reference and returns the arguments after it.
//
// With id set (from --id) no positional reference is consumed. Otherwise the
// first argument must be all digits.
func ParseTaskRef(args []string, id string) (TaskRef, []string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return TaskRef{ID: id}, args, nil
	}
	if len(args) == 0 {
		return TaskRef{}, nil, ErrTaskRefRequired
	}

	first := args[0]
	if !isAllDigits(first) {
		return TaskRef{}, nil, usageErrorf("invalid task reference: %s", first)
	}
	num, err := strconv.Atoi(first)
	if err != nil {
		return TaskRef{}, nil, usageErrorf("invalid task reference: %s", first)
	}
	return TaskRef{Num: num}, args[1:], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveTaskRef returns the task ref points at. Positions count the visible
// items of list, which is fetched first if it never was.
func ResolveTaskRef(ctx context.Context, list *todolist.Controller, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		if t, ok := list.Find(ref.ID); ok {
			return t, nil
		}
		return service.Task{ID: ref.ID}, nil
	}

	if !list.Loaded() {
		if err := list.Fetch(ctx); err != nil {
			return service.Task{}, err
		}
	}
	visible := list.State().Visible()
	if ref.Num < 1 || ref.Num > len(visible) {
		return service.Task{}, usageErrorf("task number out of range: %d", ref.Num)
	}
	return visible[ref.Num-1], nil
}

// refFlags are shared by the commands that take a <ref>.
type refFlags struct {
	id     string
	filter string
}

func (f *refFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.id, "id", "", "")
	fs.StringVar(&f.filter, "filter", "", "")
	fs.StringVar(&f.filter, "f", "", "")
}

// resolve parses the reference in args, applies --filter and looks the task up.
func (f *refFlags) resolve(ctx context.Context, list *todolist.Controller, args []string) (service.Task, []string, error) {
	ref, rest, err := ParseTaskRef(args, f.id)
	if err != nil {
		return service.Task{}, nil, err
	}
	if err := applyFilter(list, f.filter); err != nil {
		return service.Task{}, nil, err
	}
	task, err := ResolveTaskRef(ctx, list, ref)
	if err != nil {
		return service.Task{}, nil, err
	}
	return task, rest, nil
}

// applyFilter sets the list filter when name is non-empty.
func applyFilter(list *todolist.Controller, name string) error {
	if name == "" {
		return nil
	}
	f, err := service.ParseFilter(name)
	if err != nil {
		return usageError(err.Error())
	}
	list.SetFilter(f)
	return nil
}
