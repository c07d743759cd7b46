package commands

import (
	"context"
	"flag"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It flips completion, so running it on
// a completed task reopens it.
type DoneCmd struct {
	ref refFlags
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Toggle a task between open and completed" }
func (c *DoneCmd) Usage() string      { return "todo done [--filter <f>] <ref> | --id <id>" }
func (c *DoneCmd) NeedsSession() bool { return true }
func (c *DoneCmd) View() nav.View     { return nav.Dashboard }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	c.ref.register(fs)
}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string) int {
	task, rest, err := c.ref.resolve(ctx, env.App.Tasks, args)
	if err != nil {
		return reportError(env.Err, err)
	}
	if len(rest) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", rest[0]))
	}

	updated, err := env.App.Tasks.Toggle(ctx, task.ID)
	if err != nil {
		return reportError(env.Err, err)
	}

	if updated.Completed {
		env.say("ok")
	} else {
		env.say("ok (reopened)")
	}
	return exitcode.Success
}
