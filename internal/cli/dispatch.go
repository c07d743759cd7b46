// Package cli parses the command line, prepares the App and runs commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todocli/internal/app"
	"todocli/internal/commands"
	"todocli/internal/config"
	"todocli/internal/exitcode"
	"todocli/internal/logging"
	"todocli/internal/nav"
)

// AppFactory creates an App from config.
// Used to inject the backend and store during dispatch.
type AppFactory func(ctx context.Context, cfg *config.Config) (*app.App, error)

// DefaultAppFactory builds the App with the configured store and REST backend.
func DefaultAppFactory(ctx context.Context, cfg *config.Config) (*app.App, error) {
	return app.New(ctx, cfg, app.Options{})
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  AppFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and app factory.
func NewDispatcher(registry *commands.Registry, factory AppFactory) *Dispatcher {
	if factory == nil {
		factory = DefaultAppFactory
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		in:       os.Stdin,
	}
}

// SetInput sets where interactive commands read from. Defaults to os.Stdin.
func (d *Dispatcher) SetInput(r io.Reader) {
	d.in = r
}

// runState is what one process run shares across shell lines.
type runState struct {
	cfg *config.Config
	app *app.App
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	apiURL    string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	return d.run(ctx, nil, args, out, errOut)
}

func (d *Dispatcher) run(ctx context.Context, rs *runState, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	cmdName := "list"
	var remaining []string
	if len(args) > 0 {
		cmdName, remaining = args[0], args[1:]
	}

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, rs, cmd, remaining, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, rs *runState, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	fs.StringVar(&common.configDir, "config", "", "")
	fs.StringVar(&common.apiURL, "api-url", "", "")
	fs.BoolVar(&common.quiet, "quiet", false, "")
	fs.BoolVar(&common.quiet, "q", false, "")
	fs.BoolVar(&common.debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	nested := rs != nil
	if !nested {
		var code int
		rs, code = d.prepare(ctx, cmd, common, errOut)
		if rs == nil {
			return code
		}
		ctx = logging.ContextWithNewCorrelationID(ctx)
		if rs.app != nil {
			defer d.finish(ctx, rs)
		}
	} else if common.configDir != "" || common.apiURL != "" || common.debug {
		fmt.Fprintln(errOut, "error: --config, --api-url and --debug only apply when starting the shell")
		return exitcode.UserError
	}

	cfg := *rs.cfg
	cfg.Quiet = cfg.Quiet || common.quiet

	env := &commands.Env{
		Config: &cfg,
		App:    rs.app,
		Out:    out,
		Err:    errOut,
	}
	// Lines run from a shell get no input: the shell owns it.
	if !nested {
		env.In = d.in
	}
	if rs.app != nil {
		shared := rs
		env.Dispatch = func(ctx context.Context, args []string) int {
			return d.run(ctx, shared, args, out, errOut)
		}
	}

	if code, stop := d.guard(ctx, rs, cmd, &cfg, out, errOut); stop {
		return code
	}

	return cmd.Run(ctx, env, positionalArgs)
}

// prepare loads config, sets up logging and, if the command needs one,
// builds the App. A nil runState means the run is over with the given code.
func (d *Dispatcher) prepare(ctx context.Context, cmd commands.Command, common commonFlags, errOut io.Writer) (*runState, int) {
	cfg, err := config.Load(common.configDir, config.Overrides{
		APIURL: common.apiURL,
		Debug:  common.debug,
		Quiet:  common.quiet,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return nil, exitcode.UserError
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errOut,
	})

	rs := &runState{cfg: cfg}
	if !cmd.NeedsSession() {
		return rs, exitcode.Success
	}

	a, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return nil, exitcode.BackendError
	}
	rs.app = a
	return rs, exitcode.Success
}

// guard navigates to the command's view. stop is true when the route guard
// redirected and the command must not run.
func (d *Dispatcher) guard(ctx context.Context, rs *runState, cmd commands.Command, cfg *config.Config, out, errOut io.Writer) (code int, stop bool) {
	view := cmd.View()
	if view == "" || rs.app == nil {
		return exitcode.Success, false
	}

	n := rs.app.Router.Navigate(ctx, view)
	if !n.Redirected {
		return exitcode.Success, false
	}

	switch n.To {
	case nav.Login:
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError, true
	case nav.Dashboard:
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success, true
	default:
		return exitcode.Success, false
	}
}

// finish logs the metrics summary on --debug and releases the App.
func (d *Dispatcher) finish(ctx context.Context, rs *runState) {
	if rs.cfg.Debug {
		rs.app.Metrics.LogSummary(ctx)
	}
	if err := rs.app.Close(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("close app")
	}
}

// flagErrorMessage rewrites flag package errors into the CLI's wording.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Check for missing flag value
	if strings.Contains(errStr, "flag needs an argument") {
		flagPart := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + flagPart
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}
