// Package cmd implements the CLI command structure for todos.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/nibzard/todos-go/internal/config"
	"github.com/nibzard/todos-go/internal/logging"
	"github.com/nibzard/todos-go/internal/storage"
	"github.com/nibzard/todos-go/internal/todo"
	"github.com/nibzard/todos-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// cli carries the loaded configuration and output streams to each command.
type cli struct {
	cfg     *config.Config
	sources map[string]config.ConfigSource
	stdout  io.Writer
	stderr  io.Writer
	logger  *log.Logger
}

// Run executes the todos CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todos", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	loaded, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c := &cli{
		cfg:     loaded.Config,
		sources: loaded.Sources,
		stdout:  stdout,
		stderr:  stderr,
	}
	c.logger = logging.NewFromConfig(stderr, c.cfg.LogLevel, c.cfg.LogFormat, c.cfg.LogTimestamps)

	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return c.versionCommand()
	}

	// Determine the subcommand, "tui" when none is given
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return c.tuiCommand(ctx, remainingArgs)
	case "add":
		return c.addCommand(remainingArgs)
	case "ls", "list":
		return c.lsCommand(remainingArgs)
	case "done":
		return c.toggleCommand("done", remainingArgs, true)
	case "undo":
		return c.toggleCommand("undo", remainingArgs, false)
	case "rm", "remove":
		return c.rmCommand(remainingArgs)
	case "edit":
		return c.editCommand(remainingArgs)
	case "toggle-all":
		return c.toggleAllCommand(remainingArgs)
	case "clear-completed":
		return c.clearCompletedCommand(remainingArgs)
	case "config":
		return c.configCommand(remainingArgs)
	case "logs":
		return c.logsCommand(remainingArgs)
	case "doctor":
		return c.doctorCommand(remainingArgs)
	case "version":
		return c.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore opens the configured storage and hydrates a store from it. If the
// backend cannot be opened, commands that change the list fail; the others
// fall back to memory for this run.
func (c *cli) openStore(logger *log.Logger, mutating bool) (*todo.Store, func(), error) {
	st, err := storage.Open(c.cfg.StorageOptions())
	if err != nil {
		if mutating {
			return nil, nil, fmt.Errorf("storage unavailable, nothing was saved: %w", err)
		}
		logger.Warn("storage unavailable, todos will not be saved",
			"backend", c.cfg.Storage, "path", c.cfg.StoragePath, "err", err)
		st = storage.NewMemory(c.cfg.QuotaBytes)
	}

	opts := []todo.Option{todo.WithLogger(logger)}
	if v, err := todo.ParseVisibility(c.cfg.Visibility); err == nil {
		opts = append(opts, todo.WithVisibility(v))
	}
	store := todo.NewStore(st, opts...)
	store.Hydrate()

	return store, func() {
		if err := st.Close(); err != nil {
			logger.Warn("close storage", "err", err)
		}
	}, nil
}

// tuiCommand launches the TUI.
func (c *cli) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todos tui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY, use a command like 'todos ls' instead")
	}

	// The view owns the terminal, so logs go to a session file.
	var logOut io.Writer = io.Discard
	session, err := logging.OpenSessionLog(c.cfg.LogDir)
	if err != nil {
		c.logger.Warn("session log unavailable", "dir", c.cfg.LogDir, "err", err)
	} else {
		defer session.Close()
		logOut = session.Writer()
	}
	logger := logging.NewFromConfig(logOut, c.cfg.LogLevel, c.cfg.LogFormat, true)
	if session != nil {
		logger = logger.With("session", session.SessionID)
	}

	store, closeStore, err := c.openStore(logger, false)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("tui started", "backend", c.cfg.Storage, "items", store.Len())
	err = ui.RunTUI(ctx, store, ui.WithLogger(logger))
	logger.Info("tui stopped", "items", store.Len(), "remaining", store.Remaining())
	return err
}

// addCommand adds a todo titled with the joined arguments.
func (c *cli) addCommand(args []string) error {
	fs := flag.NewFlagSet("todos add", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("add: title is empty")
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	store.SetDraft(title)
	it, ok := store.AddTodo()
	if !ok {
		return fmt.Errorf("add: title is empty")
	}
	fmt.Fprintf(c.stdout, "Added %s  %s\n", shortID(it.ID), it.Title)
	return nil
}

// lsCommand prints the visible todos and the remaining count.
func (c *cli) lsCommand(args []string) error {
	fs := flag.NewFlagSet("todos ls", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	filter := fs.String("filter", "", "Filter (all|active|completed)")
	fullIDs := fs.Bool("full-ids", false, "Show full ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 && *filter == "" {
		*filter = remaining[0]
	}

	store, closeStore, err := c.openStore(c.logger, false)
	if err != nil {
		return err
	}
	defer closeStore()

	if *filter != "" {
		v, err := todo.ParseVisibility(*filter)
		if err != nil {
			return err
		}
		store.SetVisibility(v)
	}

	items := store.VisibleTodos()
	if len(items) == 0 {
		if store.Len() == 0 {
			fmt.Fprintln(c.stdout, "Nothing to do yet.")
		} else {
			fmt.Fprintf(c.stdout, "No %s todos.\n", store.Visibility())
		}
	}
	for _, it := range items {
		id := shortID(it.ID)
		if *fullIDs {
			id = it.ID
		}
		check := "[ ]"
		if it.Completed {
			check = "[x]"
		}
		fmt.Fprintf(c.stdout, "%s %s  %s\n", check, id, it.Title)
	}
	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, itemsLeft(store.Remaining()))
	return nil
}

// toggleCommand marks one todo completed or active.
func (c *cli) toggleCommand(name string, args []string, completed bool) error {
	fs := flag.NewFlagSet("todos "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s: expected exactly one id", name)
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	id, found, err := resolveID(store, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !found {
		c.noMatch(id)
		return nil
	}
	store.ToggleTodo(id, completed)

	it, _ := store.Get(id)
	state := "active"
	if it.Completed {
		state = "completed"
	}
	fmt.Fprintf(c.stdout, "Marked %s %s  %s\n", shortID(it.ID), state, it.Title)
	return nil
}

// rmCommand removes one todo.
func (c *cli) rmCommand(args []string) error {
	fs := flag.NewFlagSet("todos rm", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("rm: expected exactly one id")
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	id, found, err := resolveID(store, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	if !found {
		c.noMatch(id)
		return nil
	}
	it, _ := store.Get(id)
	store.RemoveTodo(id)
	fmt.Fprintf(c.stdout, "Removed %s  %s\n", shortID(it.ID), it.Title)
	return nil
}

// editCommand retitles one todo. A blank title removes it.
func (c *cli) editCommand(args []string) error {
	fs := flag.NewFlagSet("todos edit", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("edit: expected an id and a title")
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	id, found, err := resolveID(store, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	if !found {
		c.noMatch(id)
		return nil
	}

	store.EditTodo(id)
	store.SaveEdit(id, strings.Join(fs.Args()[1:], " "))

	if it, ok := store.Get(id); ok {
		fmt.Fprintf(c.stdout, "Updated %s  %s\n", shortID(it.ID), it.Title)
	} else {
		fmt.Fprintf(c.stdout, "Removed %s (empty title)\n", shortID(id))
	}
	return nil
}

// toggleAllCommand completes every todo, or reopens every todo with -undo.
func (c *cli) toggleAllCommand(args []string) error {
	fs := flag.NewFlagSet("todos toggle-all", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	undo := fs.Bool("undo", false, "Mark every todo active instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	store.ToggleAll(!*undo)
	if *undo {
		fmt.Fprintf(c.stdout, "Marked %d todo(s) active\n", store.Len())
	} else {
		fmt.Fprintf(c.stdout, "Marked %d todo(s) completed\n", store.Len())
	}
	return nil
}

// clearCompletedCommand removes every completed todo.
func (c *cli) clearCompletedCommand(args []string) error {
	fs := flag.NewFlagSet("todos clear-completed", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	store, closeStore, err := c.openStore(c.logger, true)
	if err != nil {
		return err
	}
	defer closeStore()

	n := len(store.CompletedTodos())
	store.ClearCompleted()
	fmt.Fprintf(c.stdout, "Cleared %d completed todo(s)\n", n)
	return nil
}

// configCommand prints the effective configuration and where each value
// came from.
func (c *cli) configCommand(args []string) error {
	fs := flag.NewFlagSet("todos config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *example {
		fmt.Fprint(c.stdout, config.ExampleConfig())
		return nil
	}

	if len(c.cfg.Files) == 0 {
		fmt.Fprintln(c.stdout, "# No config files found")
	}
	for _, f := range c.cfg.Files {
		fmt.Fprintf(c.stdout, "# Loaded %s\n", f)
	}
	fmt.Fprintln(c.stdout)

	if err := toml.NewEncoder(c.stdout).Encode(c.cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, "# Sources")
	fields := make([]string, 0, len(c.sources))
	for field := range c.sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(c.stdout, "#   %-15s %s\n", field, c.sources[field])
	}
	return nil
}

// logsCommand prints the latest session log.
func (c *cli) logsCommand(args []string) error {
	fs := flag.NewFlagSet("todos logs", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(c.cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(c.stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(c.stdout, "Showing: %s\n\n", logPath)
	return logging.TailLog(c.stdout, logPath, *n)
}

// doctorCommand checks that the configured storage opens and that the saved
// list is readable.
func (c *cli) doctorCommand(args []string) error {
	fs := flag.NewFlagSet("todos doctor", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	reset := fs.Bool("reset", false, "Delete saved todos that fail validation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := c.stdout
	fmt.Fprintln(w, "Todos Doctor")
	fmt.Fprintln(w, "============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config:")
	if len(c.cfg.Files) == 0 {
		fmt.Fprintln(w, "  ✅ No config files (using defaults), searched:")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(w, "       %s\n", p)
		}
	}
	for _, f := range c.cfg.Files {
		fmt.Fprintf(w, "  ✅ %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Storage: %s", c.cfg.Storage)
	if c.cfg.StoragePath != "" {
		fmt.Fprintf(w, " (%s)", c.cfg.StoragePath)
	}
	fmt.Fprintln(w)

	st, err := storage.Open(c.cfg.StorageOptions())
	if err != nil {
		fmt.Fprintf(w, "  ❌ Open: %v\n", err)
		allOK = false
	} else {
		defer st.Close()
		fmt.Fprintln(w, "  ✅ Open")
		if !c.checkSnapshot(st, *reset) {
			allOK = false
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Logs: %s\n", c.cfg.LogDir)
	latest, err := logging.FindLatestLog(c.cfg.LogDir)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  ❌ %v\n", err)
		allOK = false
	case latest == "":
		fmt.Fprintln(w, "  ✅ No session logs yet")
	default:
		fmt.Fprintf(w, "  ✅ Latest: %s\n", latest)
	}
	fmt.Fprintln(w)

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}

// checkSnapshot validates the saved list. With reset, an invalid list is
// deleted so the next run starts empty.
func (c *cli) checkSnapshot(st storage.Storage, reset bool) bool {
	w := c.stdout
	raw, ok, err := st.GetItem(todo.StorageKey)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Read: %v\n", err)
		return false
	}
	if !ok {
		fmt.Fprintln(w, "  ✅ No saved todos yet")
		return true
	}

	items, err := todo.DecodeSnapshot(raw)
	if err != nil {
		var verr *todo.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(w, "  ❌ Saved todos invalid at %s: %v\n", verr.Path, verr.Err)
		} else {
			fmt.Fprintf(w, "  ❌ Saved todos unreadable: %v\n", err)
		}
		if !reset {
			fmt.Fprintln(w, "     The list will load empty and be overwritten on the next change.")
			fmt.Fprintln(w, "     Run 'todos doctor -reset' to delete it now.")
			return false
		}
		if err := st.RemoveItem(todo.StorageKey); err != nil {
			fmt.Fprintf(w, "  ❌ Reset: %v\n", err)
			return false
		}
		fmt.Fprintln(w, "  ✅ Reset: invalid saved todos deleted")
		return true
	}

	completed := 0
	for _, it := range items {
		if it.Completed {
			completed++
		}
	}
	fmt.Fprintf(w, "  ✅ %d todo(s), %d completed, %d bytes\n", len(items), completed, len(raw))
	return true
}

// resolveID expands a unique id prefix to the full id. found reports whether
// the id names an existing todo; an unknown id is returned unchanged.
func resolveID(store *todo.Store, arg string) (id string, found bool, err error) {
	if arg == "" {
		return "", false, fmt.Errorf("id is empty")
	}
	if _, ok := store.Get(arg); ok {
		return arg, true, nil
	}

	var matches []string
	for _, it := range store.AllTodos() {
		if strings.HasPrefix(it.ID, arg) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return arg, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return "", false, fmt.Errorf("id prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func (c *cli) noMatch(id string) {
	fmt.Fprintf(c.stdout, "No todo matches %q, nothing changed\n", id)
}

// shortID abbreviates an id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func itemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

func (c *cli) versionCommand() error {
	fmt.Fprintf(c.stdout, "todos version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Todos - A small todo list for the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todos [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                     Launch terminal UI (default command)")
	fmt.Fprintln(w, "  add <title...>          Add a todo")
	fmt.Fprintln(w, "  ls [filter]             List todos (all|active|completed)")
	fmt.Fprintln(w, "  done <id>               Mark a todo completed")
	fmt.Fprintln(w, "  undo <id>               Mark a todo active")
	fmt.Fprintln(w, "  rm <id>                 Remove a todo")
	fmt.Fprintln(w, "  edit <id> <title...>    Change a todo's title (empty removes it)")
	fmt.Fprintln(w, "  toggle-all              Complete every todo (-undo to reopen)")
	fmt.Fprintln(w, "  clear-completed         Remove completed todos")
	fmt.Fprintln(w, "  config                  Show effective config (-example for a template)")
	fmt.Fprintln(w, "  logs                    Show the latest session log")
	fmt.Fprintln(w, "  doctor                  Check storage and saved todos")
	fmt.Fprintln(w, "  version                 Show version information")
	fmt.Fprintln(w, "  help                    Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ids may be shortened to any unique prefix.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter by state (all|active|completed)")
	fmt.Fprintln(w, "  -full-ids")
	fmt.Fprintln(w, "        Show full ids")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options (use with 'doctor' command):")
	fmt.Fprintln(w, "  -reset")
	fmt.Fprintln(w, "        Delete saved todos that fail validation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logs Options (use with 'logs' command):")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}
