package commands

import (
	"context"
	"flag"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	ref refFlags
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "todo rm [--filter <f>] <ref> | --id <id>" }
func (c *RmCmd) NeedsSession() bool { return true }
func (c *RmCmd) View() nav.View     { return nav.Dashboard }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	c.ref.register(fs)
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	task, rest, err := c.ref.resolve(ctx, env.App.Tasks, args)
	if err != nil {
		return reportError(env.Err, err)
	}
	if len(rest) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", rest[0]))
	}

	if err := env.App.Tasks.Delete(ctx, task.ID); err != nil {
		return reportError(env.Err, err)
	}

	env.say("ok")
	return exitcode.Success
}
