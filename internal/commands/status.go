package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"todocli/internal/auth"
	"todocli/internal/exitcode"
	"todocli/internal/nav"
	"todocli/internal/output"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct {
	now func() time.Time
}

// SetClock sets the time source (for testing).
func (c *StatusCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return []string{"whoami"} }
func (c *StatusCmd) Synopsis() string   { return "Show the stored session" }
func (c *StatusCmd) Usage() string      { return "todo status [common flags]" }
func (c *StatusCmd) NeedsSession() bool { return true }
func (c *StatusCmd) View() nav.View     { return "" }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, env *Env, args []string) int {
	st := env.App.Session.State()
	out := env.Out

	fmt.Fprintf(out, "server:  %s\n", env.App.Gateway.BaseURL())
	fmt.Fprintf(out, "config:  %s\n", env.Config.ConfigPath())
	fmt.Fprintf(out, "session: %s\n", st.Status)
	if !st.IsAuthenticated() {
		return exitcode.Success
	}

	fmt.Fprintf(out, "user:    %s <%s>\n", st.User.DisplayName(), st.User.Email)
	fmt.Fprintf(out, "user id: %s\n", st.User.ID)

	claims, err := auth.ParseClaims(st.Token)
	switch {
	case err != nil:
		fmt.Fprintln(out, "token:   opaque")
	case claims.ExpiresAt.IsZero():
		fmt.Fprintln(out, "token:   no expiry")
	case claims.Expired(c.clock()):
		fmt.Fprintf(out, "token:   expired %s\n", output.FormatTime(claims.ExpiresAt))
	default:
		fmt.Fprintf(out, "token:   expires %s\n", output.FormatTime(claims.ExpiresAt))
	}
	return exitcode.Success
}

func (c *StatusCmd) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
