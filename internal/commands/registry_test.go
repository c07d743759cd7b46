package commands_test

import (
	"testing"

	"todocli/internal/commands"
)

func TestRegistry(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.DoneCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&commands.AddCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Register(&commands.DoneCmd{}); err == nil || err.Error() != "command already registered: done" {
		t.Errorf("expected duplicate name error, got %v", err)
	}

	for _, name := range []string{"done", "toggle", "TOGGLE", "add", "create"} {
		if _, ok := r.Find(name); !ok {
			t.Errorf("expected %q to resolve", name)
		}
	}

	all := r.All()
	if len(all) != 2 || all[0].Name() != "add" || all[1].Name() != "done" {
		t.Errorf("expected [add done], got %d commands", len(all))
	}
}

func TestDefaultRegistry(t *testing.T) {
	want := []string{"add", "done", "edit", "help", "list", "login", "logout", "rm", "shell", "signup", "status", "version"}
	all := commands.DefaultRegistry.All()
	if len(all) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(all))
	}
	for i, cmd := range all {
		if cmd.Name() != want[i] {
			t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name())
		}
	}
}
