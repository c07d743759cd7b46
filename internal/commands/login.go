package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todocli/internal/exitcode"
	"todocli/internal/nav"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// credentialFlags are shared by login and signup.
type credentialFlags struct {
	email         string
	password      string
	passwordStdin bool
}

func (f *credentialFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.email, "email", "", "")
	fs.StringVar(&f.email, "e", "", "")
	fs.StringVar(&f.password, "password", "", "")
	fs.StringVar(&f.password, "p", "", "")
	fs.BoolVar(&f.passwordStdin, "password-stdin", false, "")
}

// readPassword returns --password, or the first line of in with --password-stdin.
func (f *credentialFlags) readPassword(in io.Reader) (string, error) {
	if !f.passwordStdin {
		return f.password, nil
	}
	if f.password != "" {
		return "", usageError("cannot use both --password and --password-stdin")
	}
	if in == nil {
		return "", usageError("no input for --password-stdin")
	}
	// The password owns the whole input; only its first line is used.
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimRight(line, "\r"), nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	creds credentialFlags
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in with email and password" }
func (c *LoginCmd) Usage() string {
	return "todo login --email <email> (--password <password> | --password-stdin)"
}
func (c *LoginCmd) NeedsSession() bool { return true }
func (c *LoginCmd) View() nav.View     { return nav.Login }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	c.creds.register(fs)
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", args[0]))
	}
	password, err := c.creds.readPassword(env.In)
	if err != nil {
		return reportError(env.Err, err)
	}

	if err := env.App.Session.Login(ctx, c.creds.email, password); err != nil {
		return reportError(env.Err, err)
	}

	env.say("ok")
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	name  string
	creds credentialFlags
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account and log in" }
func (c *SignupCmd) Usage() string {
	return "todo signup [--name <name>] --email <email> (--password <password> | --password-stdin)"
}
func (c *SignupCmd) NeedsSession() bool { return true }
func (c *SignupCmd) View() nav.View     { return nav.Signup }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.name, "n", "", "")
	c.creds.register(fs)
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return reportError(env.Err, usageErrorf("unexpected argument: %s", args[0]))
	}
	password, err := c.creds.readPassword(env.In)
	if err != nil {
		return reportError(env.Err, err)
	}

	if err := env.App.Session.Signup(ctx, c.name, c.creds.email, password); err != nil {
		return reportError(env.Err, err)
	}

	env.say("ok")
	return exitcode.Success
}
