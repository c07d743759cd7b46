package commands

import (
	"context"
	"flag"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Remove the stored session" }
func (c *LogoutCmd) Usage() string      { return "todo logout [common flags]" }
func (c *LogoutCmd) NeedsSession() bool { return true }
func (c *LogoutCmd) View() nav.View     { return "" }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string) int {
	wasAuthenticated := env.App.Session.State().IsAuthenticated()

	// Leftover keys are purged even without a live session.
	env.App.Session.Logout(ctx)

	if !wasAuthenticated {
		env.say("not logged in")
		return exitcode.Success
	}
	env.say("ok")
	return exitcode.Success
}
