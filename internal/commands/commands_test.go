package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"todocli/internal/apiclient"
	"todocli/internal/app"
	"todocli/internal/commands"
	"todocli/internal/config"
	"todocli/internal/exitcode"
	"todocli/internal/service"
	"todocli/internal/storage"
	"todocli/internal/testutil"
	"todocli/internal/validation"
)

const storedUser = `{"id":"u-1","email":"ada@example.com","name":"Ada"}`

// harness runs commands against an App backed by FakeService.
type harness struct {
	app *app.App
	svc *testutil.FakeService
	env *commands.Env

	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()

	store := storage.NewMemoryStore()
	if loggedIn {
		store.Set(storage.KeyUser, storedUser)
		store.Set(storage.KeyToken, "tok")
	}
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	h := &harness{svc: testutil.NewFakeService()}
	h.app, err = app.New(context.Background(), cfg, app.Options{Store: store, TaskService: h.svc})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { h.app.Close() })

	h.env = &commands.Env{Config: cfg, App: h.app, Out: &h.stdout, Err: &h.stderr}
	return h
}

// run parses args with the command's flags and runs it.
func (h *harness) run(t *testing.T, cmd commands.Command, args ...string) int {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd.Run(context.Background(), h.env, fs.Args())
}

func (h *harness) expect(t *testing.T, code, wantCode int, wantOut, wantErr string) {
	t.Helper()
	if code != wantCode {
		t.Errorf("expected exit code %d, got %d (stderr %q)", wantCode, code, h.stderr.String())
	}
	if h.stdout.String() != wantOut {
		t.Errorf("expected stdout %q, got %q", wantOut, h.stdout.String())
	}
	if h.stderr.String() != wantErr {
		t.Errorf("expected stderr %q, got %q", wantErr, h.stderr.String())
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t, false)
	code := h.run(t, &commands.VersionCmd{})
	h.expect(t, code, exitcode.Success, "todo 0.1.0\n", "")
}

func TestHelpCommand(t *testing.T) {
	h := newHarness(t, false)
	reg := commands.NewRegistry()
	reg.Register(&commands.ListCmd{})
	reg.Register(&commands.AddCmd{})

	code := h.run(t, commands.NewHelpCmd(reg))
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	out := h.stdout.String()
	for _, want := range []string{"Usage:", "todo add", "todo list", "Common flags:"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output should contain %q:\n%s", want, out)
		}
	}

	code = h.run(t, commands.NewHelpCmd(reg), "ls")
	if code != exitcode.Success || !strings.Contains(h.stdout.String(), "todo list [--filter") {
		t.Errorf("expected usage of list, got %d %q", code, h.stdout.String())
	}

	code = h.run(t, commands.NewHelpCmd(reg), "nope")
	h.expect(t, code, exitcode.UserError, "", "error: unknown command: nope\n")
}

func TestListCommand(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	h.svc.AddTask("Buy eggs", true)

	code := h.run(t, &commands.ListCmd{})
	h.expect(t, code, exitcode.Success, "   1  [ ] Buy milk\n   2  [x] Buy eggs\n1 item remaining\n", "")
}

func TestListCommand_Filter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	h.svc.AddTask("Buy eggs", true)

	code := h.run(t, &commands.ListCmd{}, "--filter", "completed")
	h.expect(t, code, exitcode.Success, "   1  [x] Buy eggs\n1 item remaining\n", "")

	code = h.run(t, &commands.ListCmd{}, "--filter", "bogus")
	if code != exitcode.UserError || !strings.HasPrefix(h.stderr.String(), "error: invalid filter: bogus") {
		t.Errorf("expected invalid filter error, got %d %q", code, h.stderr.String())
	}
}

func TestListCommand_SetFilter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	h.svc.AddTask("Buy eggs", true)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("active")
	code := cmd.Run(context.Background(), h.env, nil)
	h.expect(t, code, exitcode.Success, "   1  [ ] Buy milk\n1 item remaining\n", "")
	if h.app.Tasks.State().Filter != service.FilterActive {
		t.Errorf("expected filter kept in list state, got %s", h.app.Tasks.State().Filter)
	}
}

func TestListCommand_Empty(t *testing.T) {
	h := newHarness(t, true)
	code := h.run(t, &commands.ListCmd{})
	h.expect(t, code, exitcode.Success, "no tasks found\n", "")
}

func TestListCommand_BackendError(t *testing.T) {
	h := newHarness(t, true)
	h.svc.ListTasksErr = &apiclient.TransportError{Method: "GET", URL: "http://x/api/u-1/tasks", Err: errors.New("connection refused")}

	code := h.run(t, &commands.ListCmd{})
	h.expect(t, code, exitcode.BackendError, "",
		"error: backend error: GET http://x/api/u-1/tasks: connection refused\n")
	if h.app.Tasks.State().Error == "" {
		t.Error("expected list state to carry the error")
	}
}

func TestAddCommand(t *testing.T) {
	h := newHarness(t, true)

	code := h.run(t, &commands.AddCmd{}, "--description", "2 litres", "Buy", "milk")
	h.expect(t, code, exitcode.Success, "ok\n", "")

	tasks := h.svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Description != "2 litres" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if items := h.app.Tasks.State().Items; len(items) != 1 {
		t.Errorf("expected created task in list state, got %d", len(items))
	}
}

func TestAddCommand_SetDescription(t *testing.T) {
	h := newHarness(t, true)

	cmd := &commands.AddCmd{}
	cmd.SetDescription("whole wheat")
	code := cmd.Run(context.Background(), h.env, []string{"Buy", "bread"})
	h.expect(t, code, exitcode.Success, "ok\n", "")

	tasks := h.svc.Tasks()
	if len(tasks) != 1 || tasks[0].Description != "whole wheat" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestAddCommand_TitleRequired(t *testing.T) {
	h := newHarness(t, true)

	for _, args := range [][]string{nil, {"  "}} {
		code := h.run(t, &commands.AddCmd{}, args...)
		h.expect(t, code, exitcode.UserError, "", "error: title required\n")
	}
	if h.svc.Calls["CreateTask"] != 0 {
		t.Error("no task should be created")
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	h := newHarness(t, true)
	h.env.Config.Quiet = true

	code := h.run(t, &commands.AddCmd{}, "x")
	h.expect(t, code, exitcode.Success, "", "")
}

func TestDoneCommand(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	id := h.svc.AddTask("Buy eggs", false)

	code := h.run(t, &commands.DoneCmd{}, "2")
	h.expect(t, code, exitcode.Success, "ok\n", "")
	if task, _ := h.app.Tasks.Find(id); !task.Completed {
		t.Error("expected task 2 completed")
	}

	code = h.run(t, &commands.DoneCmd{}, "2")
	h.expect(t, code, exitcode.Success, "ok (reopened)\n", "")
}

func TestDoneCommand_PositionFollowsFilter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", true)
	id := h.svc.AddTask("Buy eggs", false)

	code := h.run(t, &commands.DoneCmd{}, "--filter", "active", "1")
	h.expect(t, code, exitcode.Success, "ok\n", "")
	if task, _ := h.app.Tasks.Find(id); !task.Completed {
		t.Error("expected the first active task to be toggled")
	}
}

func TestDoneCommand_ByID(t *testing.T) {
	h := newHarness(t, true)
	id := h.svc.AddTask("Buy milk", false)

	code := h.run(t, &commands.DoneCmd{}, "--id", id)
	h.expect(t, code, exitcode.Success, "ok\n", "")
	if h.svc.Calls["ListTasks"] != 0 {
		t.Error("--id must not fetch the list")
	}

	code = h.run(t, &commands.DoneCmd{}, "--id", "99")
	h.expect(t, code, exitcode.UserError, "", "error: Task not found\n")
}

func TestRefErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmd     commands.Command
		args    []string
		wantErr string
	}{
		{"done without ref", &commands.DoneCmd{}, nil, "error: task reference required\n"},
		{"rm out of range", &commands.RmCmd{}, []string{"3"}, "error: task number out of range: 3\n"},
		{"rm zero", &commands.RmCmd{}, []string{"0"}, "error: task number out of range: 0\n"},
		{"edit bad ref", &commands.EditCmd{}, []string{"x1", "title"}, "error: invalid task reference: x1\n"},
		{"done extra arg", &commands.DoneCmd{}, []string{"1", "2"}, "error: unexpected argument: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			h.svc.AddTask("Buy milk", false)

			code := h.run(t, tt.cmd, tt.args...)
			h.expect(t, code, exitcode.UserError, "", tt.wantErr)
			if len(h.svc.Tasks()) != 1 || h.svc.Tasks()[0].Completed {
				t.Error("task must be unchanged")
			}
		})
	}
}

func TestEditCommand(t *testing.T) {
	h := newHarness(t, true)
	id := h.svc.AddTask("Buy milk", false)

	code := h.run(t, &commands.EditCmd{}, "1", "Buy", "oat", "milk")
	h.expect(t, code, exitcode.Success, "ok\n", "")
	if task, _ := h.app.Tasks.Find(id); task.Title != "Buy oat milk" {
		t.Errorf("expected title updated, got %q", task.Title)
	}

	code = h.run(t, &commands.EditCmd{}, "--description", "", "1")
	h.expect(t, code, exitcode.Success, "ok\n", "")
	if task, _ := h.app.Tasks.Find(id); task.Title != "Buy oat milk" || task.Description != "" {
		t.Errorf("description-only edit must keep the title, got %+v", task)
	}

	code = h.run(t, &commands.EditCmd{}, "1")
	h.expect(t, code, exitcode.UserError, "", "error: title required\n")
}

func TestEditCommand_ServerRejects(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	h.svc.UpdateTaskErr = &apiclient.ValidationError{Status: 500, Message: "Internal Server Error"}

	code := h.run(t, &commands.EditCmd{}, "1", "new")
	h.expect(t, code, exitcode.BackendError, "", "error: Internal Server Error\n")
	if task := h.app.Tasks.State().Items[0]; task.Title != "Buy milk" {
		t.Errorf("failed edit must leave the item, got %q", task.Title)
	}
}

func TestRmCommand(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", false)
	h.svc.AddTask("Buy eggs", false)

	code := h.run(t, &commands.RmCmd{}, "1")
	h.expect(t, code, exitcode.Success, "ok\n", "")

	tasks := h.svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy eggs" {
		t.Errorf("unexpected tasks after rm: %+v", tasks)
	}
}

func TestStatusCommand_Anonymous(t *testing.T) {
	h := newHarness(t, false)

	code := h.run(t, &commands.StatusCmd{})
	want := "server:  http://localhost:8000\n" +
		"config:  " + h.env.Config.ConfigPath() + "\n" +
		"session: anonymous\n"
	h.expect(t, code, exitcode.Success, want, "")
}

func TestStatusCommand_OpaqueToken(t *testing.T) {
	h := newHarness(t, true)

	code := h.run(t, &commands.StatusCmd{})
	want := "server:  http://localhost:8000\n" +
		"config:  " + h.env.Config.ConfigPath() + "\n" +
		"session: authenticated\n" +
		"user:    Ada <ada@example.com>\n" +
		"user id: u-1\n" +
		"token:   opaque\n"
	h.expect(t, code, exitcode.Success, want, "")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"validation", &validation.Errors{}, exitcode.UserError},
		{"ref", commands.ErrTaskRefRequired, exitcode.UserError},
		{"not found", testutil.ErrNotFound, exitcode.UserError},
		{"unauthorized", apiclient.ErrUnauthorized, exitcode.AuthError},
		{"not authenticated", service.ErrNotAuthenticated, exitcode.AuthError},
		{"server", &apiclient.ValidationError{Status: 503, Message: "down"}, exitcode.BackendError},
		{"transport", &apiclient.TransportError{Err: errors.New("eof")}, exitcode.BackendError},
		{"other", errors.New("boom"), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commands.ExitCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
