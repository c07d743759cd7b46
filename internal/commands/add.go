package commands

import (
	"context"
	"flag"
	"strings"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

// SetDescription sets the description flag (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.description = desc
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "todo add [--description <text>] <title...>" }
func (c *AddCmd) NeedsSession() bool { return true }
func (c *AddCmd) View() nav.View     { return nav.Dashboard }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return reportError(env.Err, usageError("title required"))
	}

	if _, err := env.App.Tasks.Add(ctx, title, c.description); err != nil {
		return reportError(env.Err, err)
	}

	env.say("ok")
	return exitcode.Success
}
