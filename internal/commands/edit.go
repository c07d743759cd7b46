package commands

import (
	"context"
	"flag"
	"strings"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
	"todocli/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given, so
// that --description "" can clear a description.
type optionalString struct {
	value string
	set   bool
}

func (s *optionalString) String() string { return s.value }

func (s *optionalString) Set(v string) error {
	s.value, s.set = v, true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	ref         refFlags
	description optionalString
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return []string{"rename"} }
func (c *EditCmd) Synopsis() string   { return "Change a task's title or description" }
func (c *EditCmd) Usage() string      { return "todo edit [--description <text>] <ref> [<title...>]" }
func (c *EditCmd) NeedsSession() bool { return true }
func (c *EditCmd) View() nav.View     { return nav.Dashboard }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.ref.register(fs)
	c.description = optionalString{}
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	task, rest, err := c.ref.resolve(ctx, env.App.Tasks, args)
	if err != nil {
		return reportError(env.Err, err)
	}

	var upd service.TaskUpdate
	if title := strings.Join(rest, " "); strings.TrimSpace(title) != "" {
		upd.Title = &title
	}
	if c.description.set {
		upd.Description = &c.description.value
	}
	if upd.IsEmpty() {
		return reportError(env.Err, usageError("title required"))
	}

	if upd.Description == nil {
		_, err = env.App.Tasks.UpdateTitle(ctx, task.ID, *upd.Title)
	} else {
		_, err = env.App.Tasks.Update(ctx, task.ID, upd)
	}
	if err != nil {
		return reportError(env.Err, err)
	}

	env.say("ok")
	return exitcode.Success
}
