// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/todos-go/internal/storage"
	"github.com/nibzard/todos-go/internal/todo"
)

// isolate points HOME and the working directory at temp dirs and clears
// TODOS_* variables so no real config leaks into a test.
func isolate(t *testing.T) (home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range []string{
		"TODOS_STORAGE", "TODOS_STORAGE_PATH", "TODOS_QUOTA_BYTES", "TODOS_LOG_DIR",
		"TODOS_LOG_LEVEL", "TODOS_LOG_FORMAT", "TODOS_LOG_TIMESTAMPS", "TODOS_VISIBILITY",
	} {
		t.Setenv(name, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

// runCLI runs the CLI against storePath and returns stdout and stderr.
func runCLI(t *testing.T, storePath string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-storage", "file", "-storage-path", storePath}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, storePath string, args ...string) string {
	t.Helper()
	out, errOut, err := runCLI(t, storePath, args...)
	if err != nil {
		t.Fatalf("todos %v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

// addedID extracts the short id from "Added <id>  <title>".
func addedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Added" {
		t.Fatalf("unexpected add output %q", out)
	}
	return fields[1]
}

func savedItems(t *testing.T, storePath string) []todo.Item {
	t.Helper()
	st, err := storage.OpenFile(storePath, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer st.Close()
	raw, ok, err := st.GetItem(todo.StorageKey)
	if err != nil || !ok {
		t.Fatalf("GetItem: ok=%v err=%v", ok, err)
	}
	items, err := todo.DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	return items
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	isolate(t)

	t.Run("shows help with --help flag", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), []string{"--help"}, &stdout, &stderr); err != nil {
			t.Errorf("expected no error with --help, got %v", err)
		}
		if !strings.Contains(stdout.String(), "Usage:") {
			t.Errorf("help output missing usage: %q", stdout.String())
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), []string{"help"}, &stdout, &stderr); err != nil {
			t.Errorf("expected no error with help command, got %v", err)
		}
		if !strings.Contains(stdout.String(), "clear-completed") {
			t.Error("help output should list commands")
		}
	})

	t.Run("shows version with -v flag", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), []string{"-v"}, &stdout, &stderr); err != nil {
			t.Errorf("expected no error with -v, got %v", err)
		}
		if got := stdout.String(); got != "todos version dev\n" {
			t.Errorf("version output = %q", got)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run(context.Background(), []string{"unknown-command"}, &stdout, &stderr)
		if err == nil {
			t.Fatal("expected error for unknown command, got nil")
		}
		if !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("invalid config value returns error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run(context.Background(), []string{"-visibility", "someday", "ls"}, &stdout, &stderr)
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestAddAndList(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	out := mustRun(t, path, "add", "Buy", "milk")
	if !strings.HasSuffix(strings.TrimSpace(out), "Buy milk") {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, path, "add", "Walk dog")

	out = mustRun(t, path, "ls")
	for _, want := range []string{"[ ]", "Buy milk", "Walk dog", "2 items left"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}

	items := savedItems(t, path)
	if len(items) != 2 || items[0].Title != "Walk dog" || items[1].Title != "Buy milk" {
		t.Errorf("saved items = %+v", items)
	}
}

func TestAddEmptyTitle(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	for _, args := range [][]string{{"add"}, {"add", "  "}} {
		if _, _, err := runCLI(t, path, args...); err == nil {
			t.Errorf("todos %v: expected error", args)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("nothing should be written for an empty title, stat err = %v", err)
	}
}

func TestDoneUndoAndFilters(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	id := addedID(t, mustRun(t, path, "add", "one"))
	mustRun(t, path, "add", "two")

	out := mustRun(t, path, "done", id)
	if !strings.Contains(out, "completed") {
		t.Errorf("done output = %q", out)
	}

	tests := []struct {
		args []string
		want []string
		not  []string
	}{
		{[]string{"ls", "active"}, []string{"two", "1 item left"}, []string{"one"}},
		{[]string{"ls", "-filter", "completed"}, []string{"[x]", "one"}, []string{"two"}},
		{[]string{"ls"}, []string{"one", "two"}, nil},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out := mustRun(t, path, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("output should not contain %q:\n%s", n, out)
				}
			}
		})
	}

	mustRun(t, path, "undo", id)
	for _, it := range savedItems(t, path) {
		if it.Completed {
			t.Errorf("%s should be active after undo", it.Title)
		}
	}
}

func TestListFromConfigVisibility(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	id := addedID(t, mustRun(t, path, "add", "finished"))
	mustRun(t, path, "add", "pending")
	mustRun(t, path, "done", id)

	out := mustRun(t, path, "-visibility", "completed", "ls")
	if !strings.Contains(out, "finished") || strings.Contains(out, "pending") {
		t.Errorf("ls with completed visibility:\n%s", out)
	}
}

func TestEditAndRemove(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	id := addedID(t, mustRun(t, path, "add", "old title"))

	out := mustRun(t, path, "edit", id, " new", "title ")
	if !strings.Contains(out, "Updated") {
		t.Errorf("edit output = %q", out)
	}
	items := savedItems(t, path)
	if len(items) != 1 || items[0].Title != "new title" || items[0].Editing {
		t.Fatalf("saved items = %+v", items)
	}

	mustRun(t, path, "edit", id)
	if items := savedItems(t, path); len(items) != 0 {
		t.Errorf("edit with empty title should remove, got %+v", items)
	}

	id = addedID(t, mustRun(t, path, "add", "to remove"))
	out = mustRun(t, path, "rm", id)
	if !strings.Contains(out, "Removed") {
		t.Errorf("rm output = %q", out)
	}
	if items := savedItems(t, path); len(items) != 0 {
		t.Errorf("saved items after rm = %+v", items)
	}
}

func TestUnknownIDIsNoop(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")
	id := addedID(t, mustRun(t, path, "add", "keep me"))

	// A one-byte quota makes every write fail with a logged warning, so a
	// missing warning shows nothing was written.
	for _, args := range [][]string{
		{"done", "nope"},
		{"undo", "nope"},
		{"rm", "nope"},
		{"edit", "nope", "title"},
	} {
		out, errOut, err := runCLI(t, path, append([]string{"-quota-bytes", "1"}, args...)...)
		if err != nil {
			t.Fatalf("todos %v: %v", args, err)
		}
		if !strings.Contains(out, "nothing changed") {
			t.Errorf("todos %v output = %q", args, out)
		}
		if strings.Contains(errOut, "persist todos") {
			t.Errorf("todos %v wrote to storage: %q", args, errOut)
		}
	}

	_, errOut, err := runCLI(t, path, "-quota-bytes", "1", "done", id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "persist todos") {
		t.Errorf("done on a real id should attempt a write, stderr = %q", errOut)
	}

	items := savedItems(t, path)
	if len(items) != 1 || items[0].Title != "keep me" || items[0].Completed {
		t.Errorf("saved items = %+v", items)
	}
}

func TestToggleAllAndClearCompleted(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")
	for _, title := range []string{"a", "b", "c"} {
		mustRun(t, path, "add", title)
	}

	mustRun(t, path, "toggle-all")
	for _, it := range savedItems(t, path) {
		if !it.Completed {
			t.Errorf("%s should be completed", it.Title)
		}
	}

	mustRun(t, path, "toggle-all", "-undo")
	for _, it := range savedItems(t, path) {
		if it.Completed {
			t.Errorf("%s should be active", it.Title)
		}
	}

	id := addedID(t, mustRun(t, path, "add", "d"))
	mustRun(t, path, "done", id)
	out := mustRun(t, path, "clear-completed")
	if !strings.Contains(out, "Cleared 1") {
		t.Errorf("clear-completed output = %q", out)
	}
	if items := savedItems(t, path); len(items) != 3 {
		t.Errorf("len(saved) = %d, want 3", len(items))
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789"}
	n := 0
	store := todo.NewStore(nil, todo.WithIDGenerator(func() string {
		id := ids[n]
		n++
		return id
	}))
	for _, title := range []string{"one", "two", "three"} {
		store.SetDraft(title)
		store.AddTodo()
	}

	tests := []struct {
		arg       string
		wantID    string
		wantFound bool
		wantErr   bool
	}{
		{"abc123", "abc123", true, false},
		{"abc", "abc123", true, false},
		{"x", "xyz789", true, false},
		{"ab", "", false, true},
		{"missing", "missing", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			id, found, err := resolveID(store, tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if id != tt.wantID || found != tt.wantFound {
				t.Errorf("resolveID(%q) = %q, %v; want %q, %v", tt.arg, id, found, tt.wantID, tt.wantFound)
			}
		})
	}
}

func TestStorageUnavailable(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "todos.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"add", "lost"},
		{"done", "abc"},
		{"undo", "abc"},
		{"rm", "abc"},
		{"edit", "abc", "title"},
		{"toggle-all"},
		{"clear-completed"},
	} {
		out, _, err := runCLI(t, path, args...)
		if err == nil || !strings.Contains(err.Error(), "nothing was saved") {
			t.Errorf("todos %v: expected storage error, got %v", args, err)
		}
		if out != "" {
			t.Errorf("todos %v printed %q", args, out)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{corrupt" {
		t.Errorf("storage file changed to %q", data)
	}

	out, errOut, err := runCLI(t, path, "ls")
	if err != nil {
		t.Fatalf("ls should fall back to memory, got %v", err)
	}
	if !strings.Contains(out, "Nothing to do yet.") {
		t.Errorf("ls output = %q", out)
	}
	if !strings.Contains(errOut, "storage unavailable") {
		t.Errorf("expected storage warning on stderr, got %q", errOut)
	}
}

func TestConfigCommand(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")

	out := mustRun(t, path, "config")
	for _, want := range []string{
		"# No config files found",
		`storage = "file"`,
		"storage_path",
		"storage         flag",
		"log_level       default",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, path, "config", "-example")
	if !strings.HasPrefix(out, "# todos configuration file") {
		t.Errorf("config -example output = %q", out)
	}
}

func TestLogsCommand(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "todos.json")
	logDir := t.TempDir()

	out := mustRun(t, path, "-log-dir", logDir, "logs")
	if !strings.Contains(out, "No log files found.") {
		t.Errorf("logs output = %q", out)
	}

	content := "line1\nline2\nline3\n"
	if err := os.WriteFile(filepath.Join(logDir, "20260101-000000-1.log"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	out = mustRun(t, path, "-log-dir", logDir, "logs", "-n", "2")
	if !strings.HasSuffix(out, "line2\nline3\n") || strings.Contains(out, "line1") {
		t.Errorf("logs -n 2 output = %q", out)
	}
}

func TestDoctorCommand(t *testing.T) {
	isolate(t)

	t.Run("healthy store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todos.json")
		mustRun(t, path, "add", "one")
		out := mustRun(t, path, "doctor")
		for _, want := range []string{"✅ Open", "1 todo(s)", "All checks passed."} {
			if !strings.Contains(out, want) {
				t.Errorf("doctor output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todos.json")
		st, err := storage.OpenFile(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		if err := st.SetItem(todo.StorageKey, `[{"id":"a","title":"x","completed":"yes"}]`); err != nil {
			t.Fatal(err)
		}
		st.Close()

		out, _, err := runCLI(t, path, "doctor")
		if err == nil {
			t.Error("expected doctor to report problems")
		}
		if !strings.Contains(out, "Saved todos invalid") {
			t.Errorf("doctor output:\n%s", out)
		}
	})

	t.Run("reset deletes invalid snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todos.json")
		st, err := storage.OpenFile(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		if err := st.SetItem(todo.StorageKey, `[{"id":"a","title":"\u00a0","completed":false}]`); err != nil {
			t.Fatal(err)
		}
		st.Close()

		out := mustRun(t, path, "doctor", "-reset")
		if !strings.Contains(out, "[0].title") || !strings.Contains(out, "Reset: invalid saved todos deleted") {
			t.Errorf("doctor -reset output:\n%s", out)
		}

		st, err = storage.OpenFile(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		defer st.Close()
		if _, ok, _ := st.GetItem(todo.StorageKey); ok {
			t.Error("invalid snapshot should be deleted")
		}

		out = mustRun(t, path, "doctor")
		if !strings.Contains(out, "No saved todos yet") {
			t.Errorf("doctor after reset:\n%s", out)
		}
	})
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
