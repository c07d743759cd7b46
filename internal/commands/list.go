package commands

import (
	"context"
	"flag"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
	"todocli/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	filter  string
	verbose bool
}

// SetFilter sets the filter flag (for testing).
func (c *ListCmd) SetFilter(filter string) {
	c.filter = filter
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todo list [--filter all|active|completed] [--verbose]" }
func (c *ListCmd) NeedsSession() bool { return true }
func (c *ListCmd) View() nav.View     { return nav.Dashboard }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
	fs.BoolVar(&c.verbose, "verbose", false, "")
	fs.BoolVar(&c.verbose, "v", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", args[0]))
	}

	list := env.App.Tasks
	if err := applyFilter(list, c.filter); err != nil {
		return reportError(env.Err, err)
	}

	if err := list.Fetch(ctx); err != nil {
		return reportError(env.Err, err)
	}

	output.FormatList(env.Out, list.State(), c.verbose)
	return exitcode.Success
}
