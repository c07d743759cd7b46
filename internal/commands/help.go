package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd returns a help command listing the commands of r.
func NewHelpCmd(r *Registry) *HelpCmd {
	return &HelpCmd{registry: r}
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todo help [<command>]" }
func (c *HelpCmd) NeedsSession() bool { return false }
func (c *HelpCmd) View() nav.View     { return "" }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	r := c.registry
	if r == nil {
		r = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, ok := r.Find(args[0])
		if !ok {
			return reportError(env.Err, usageErrorf("unknown command: %s", args[0]))
		}
		fmt.Fprintf(env.Out, "Usage:\n  %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(env.Out, "Aliases: %s\n", strings.Join(aliases, ", "))
		}
		return exitcode.Success
	}

	fmt.Fprintln(env.Out, "Usage:")
	fmt.Fprintln(env.Out, "  todo                 List tasks (same as todo list)")
	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	for _, cmd := range r.All() {
		fmt.Fprintf(tw, "  todo %s\t%s\n", cmd.Name(), cmd.Synopsis())
	}
	tw.Flush()
	fmt.Fprint(env.Out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
A <ref> is the task number shown by the last listing under the same filter.

Common flags:
  --config <dir>   Override config directory
  --api-url <url>  Override the backend URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
