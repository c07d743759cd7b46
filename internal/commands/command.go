// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"todocli/internal/app"
	"todocli/internal/config"
	"todocli/internal/nav"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSession returns true if the command runs against an App.
	// Commands like help and version return false.
	NeedsSession() bool

	// View returns the view the dispatcher navigates to before Run.
	// The route guard may refuse it. Empty means no navigation.
	View() nav.View

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env is what a command runs against.
type Env struct {
	// Config is always provided.
	Config *config.Config

	// App is nil if NeedsSession returns false.
	App *app.App

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Dispatch runs another command line against the same App.
	Dispatch func(ctx context.Context, args []string) int
}

// say prints an informational line unless --quiet is set.
func (e *Env) say(line string) {
	if !e.Config.Quiet {
		io.WriteString(e.Out, line+"\n")
	}
}
