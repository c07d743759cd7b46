package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"

	"todocli/internal/exitcode"
	"todocli/internal/logging"
	"todocli/internal/nav"
	"todocli/internal/service"
)

func init() {
	Register(&ShellCmd{})
}

// Prompt is printed before every shell line unless --quiet is set.
const Prompt = "todo> "

// ShellCmd implements the shell command: one command per input line, all
// sharing the same session and task list.
type ShellCmd struct{}

func (c *ShellCmd) Name() string       { return "shell" }
func (c *ShellCmd) Aliases() []string  { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string   { return "Run commands interactively" }
func (c *ShellCmd) Usage() string      { return "todo shell [common flags]" }
func (c *ShellCmd) NeedsSession() bool { return true }
func (c *ShellCmd) View() nav.View     { return "" }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

// Run returns the exit code of the last command line.
func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", args[0]))
	}
	if env.In == nil || env.Dispatch == nil {
		return reportError(env.Err, usageError("shell needs an input"))
	}

	scanner := bufio.NewScanner(env.In)
	last := exitcode.Success
	for {
		if !env.Config.Quiet {
			fmt.Fprint(env.Out, Prompt)
		}
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return last
		case "shell", "sh":
			last = reportError(env.Err, usageError("already in shell"))
		case "filter":
			last = c.filter(env, fields[1:])
		default:
			logging.Ctx(ctx).Debug().Str("command", fields[0]).Msg("shell line")
			last = env.Dispatch(ctx, fields)
		}

		if ctx.Err() != nil {
			return last
		}
	}

	if err := scanner.Err(); err != nil {
		return reportError(env.Err, fmt.Errorf("read input: %w", err))
	}
	if !env.Config.Quiet {
		fmt.Fprintln(env.Out)
	}
	return last
}

// filter prints the current filter, or sets it.
func (c *ShellCmd) filter(env *Env, args []string) int {
	list := env.App.Tasks
	if len(args) == 0 {
		fmt.Fprintln(env.Out, list.State().Filter)
		return exitcode.Success
	}
	f, err := service.ParseFilter(args[0])
	if err != nil {
		return reportError(env.Err, usageError(err.Error()))
	}
	list.SetFilter(f)
	env.say("ok")
	return exitcode.Success
}
