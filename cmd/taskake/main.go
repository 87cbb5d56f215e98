package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ldi/taskake/internal/api"
	"github.com/ldi/taskake/internal/config"
	"github.com/ldi/taskake/internal/dashboard"
	"github.com/ldi/taskake/internal/mcp"
	"github.com/ldi/taskake/internal/server"
	"github.com/ldi/taskake/internal/session"
	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/internal/ui"
	"github.com/ldi/taskake/pkg/models"
)

var (
	configDir string
	verbose   bool

	stdout io.Writer = os.Stdout
	logger *slog.Logger
)

func main() {
	flag.StringVar(&configDir, "config-dir", ".", "Directory holding the local .env file")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	logger = newLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	var command string
	var args []string

	if flag.NArg() == 0 {
		selected, err := ui.RunMenu()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
		args = []string{}
	} else {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	if err := execute(command, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(command string, args []string) error {
	switch command {
	case "board":
		return runBoard(args)
	case "web":
		return runWeb(args)
	case "mcp":
		return runMCP(args)
	case "list-tasks":
		return runListTasks(args)
	case "status":
		return runStatus(args)
	case "overdue":
		return runOverdue(args)
	case "upcoming":
		return runUpcoming(args)
	case "projects":
		return runListProjects(args)
	case "project":
		return runProject(args)
	case "whoami":
		return runWhoami(args)
	case "users":
		return runListUsers(args)
	case "config":
		return runConfig(args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// loadConfig resolves and validates the configuration for commands that reach
// the API.
func loadConfig() (*config.Config, error) {
	cfg := config.Load(configDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set values with 'taskake config set KEY VALUE')", err)
	}
	return cfg, nil
}

func newClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return api.New(cfg, getLogger()), cfg, nil
}

func newStore(client *api.Client, cfg *config.Config) *store.TaskStore {
	st := store.NewTaskStore(client, getLogger())
	st.Engine().SetUpcomingWindow(cfg.UpcomingDays)
	return st
}

// taskFilterFlags registers the listing filters shared by several commands.
func taskFilterFlags(fs *flag.FlagSet, pageSize int) func() (models.TaskListParams, error) {
	status := fs.String("status", "", "Filter by status (todo, in_progress, review, done, cancelled)")
	priority := fs.String("priority", "", "Filter by priority (low, medium, high, critical)")
	assignee := fs.String("assignee", "", "Filter by assignee user ID")
	project := fs.String("project", "", "Filter by project ID")
	search := fs.String("search", "", "Full text search")
	page := fs.Int("page", 1, "Page number")
	size := fs.Int("page-size", pageSize, "Tasks per page (max 100)")

	return func() (models.TaskListParams, error) {
		if *status != "" && !models.IsValidTaskStatus(*status) {
			return models.TaskListParams{}, fmt.Errorf("invalid status '%s'", *status)
		}
		if *priority != "" && !models.IsValidTaskPriority(*priority) {
			return models.TaskListParams{}, fmt.Errorf("invalid priority '%s'", *priority)
		}
		return models.TaskListParams{
			Status:     models.TaskStatus(*status),
			Priority:   models.TaskPriority(*priority),
			AssignedTo: *assignee,
			ProjectID:  *project,
			Search:     *search,
			Page:       *page,
			PageSize:   *size,
		}, nil
	}
}

// loadStore parses the filter flags and loads one page into a fresh store.
func loadStore(name string, args []string, extra func(fs *flag.FlagSet)) (*store.TaskStore, *config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	params := taskFilterFlags(fs, 100)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	p, err := params()
	if err != nil {
		return nil, nil, err
	}

	client, cfg, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	st := newStore(client, cfg)
	if err := st.Load(context.Background(), p); err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

func runBoard(args []string) error {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	params := taskFilterFlags(fs, 100)
	refresh := fs.Duration("refresh", 0, "Reload interval (0 to disable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := params()
	if err != nil {
		return err
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := newStore(client, cfg)
	defer st.Close()
	if err := st.Load(ctx, p); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	return dashboard.Run(ctx, st, dashboard.Options{RefreshInterval: *refresh})
}

func runWeb(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	params := taskFilterFlags(fs, 100)
	port := fs.String("port", "8000", "Port to listen on")
	refresh := fs.Duration("refresh", time.Minute, "Reload interval (0 to disable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := params()
	if err != nil {
		return err
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := newStore(client, cfg)
	defer st.Close()
	if err := st.Load(ctx, p); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	if *refresh > 0 {
		go refreshLoop(ctx, st, *refresh)
	}

	srv := server.NewServer(st, getLogger())

	// Ensure graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(stdout, "Serving task board at http://localhost:%s\n", *port)
	if err := srv.Start(":" + *port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func refreshLoop(ctx context.Context, st *store.TaskStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by the store and leave the collection as it was.
			_ = st.Refresh(ctx)
		}
	}
}

func runMCP(args []string) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	registry := session.NewRegistry(func(id string) *store.TaskStore {
		getLogger().Debug("opening session", "session_id", id)
		return newStore(client, cfg)
	})
	defer registry.CloseAll()

	s := mcp.NewServer(registry, getLogger())
	return mcp.Serve(s)
}

func runConfig(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		return showConfig()
	}

	switch args[0] {
	case "set":
		fs := flag.NewFlagSet("config set", flag.ContinueOnError)
		global := fs.Bool("global", false, "Write to the global config file instead of the local .env")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: taskake config set [-global] KEY VALUE")
		}
		key, value := fs.Arg(0), fs.Arg(1)
		if *global {
			if err := config.SetGlobal(key, value); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "✓ Set %s in %s\n", key, config.GetGlobalConfigPath())
			return nil
		}
		if err := config.Set(configDir, key, value); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✓ Set %s in %s\n", key, config.GetConfigPath(configDir))
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func showConfig() error {
	cfg := config.Load(configDir)
	values := cfg.Values()

	fmt.Fprintln(stdout, "Taskake Configuration")
	fmt.Fprintln(stdout, "=====================")
	for _, key := range config.Keys {
		fmt.Fprintf(stdout, "%-22s %s\n", key, values[key])
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdout, "\n! %v\n", err)
	}
	return nil
}
