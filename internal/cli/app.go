// Package cli implements the babylog command line tracker on top of the local SQLite store.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/densign01/baby-tracker/internal/config"
	"github.com/densign01/baby-tracker/internal/observability"
	"github.com/densign01/baby-tracker/internal/persistence/sqlite"
	"github.com/densign01/baby-tracker/internal/service"
)

// App carries the state shared by every command of one invocation.
type App struct {
	configPath string
	dbFlag     string
	childFlag  string
	tzFlag     string

	now    func() time.Time
	stderr io.Writer

	cfg     config.CLI
	store   *sqlite.Store
	service *service.Service
	logger  zerolog.Logger
}

// Option configures an App.
type Option func(*App)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithStderr redirects log output.
func WithStderr(w io.Writer) Option {
	return func(a *App) { a.stderr = w }
}

// NewRootCommand builds the babylog command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	return newApp(opts...).rootCommand()
}

func newApp(opts ...Option) *App {
	app := &App{now: time.Now, stderr: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "babylog",
		Short:         "Track sleep, feedings and diapers from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultCLIPath(), "config file")
	root.PersistentFlags().StringVar(&a.dbFlag, "db", "", "database file (overrides config)")
	root.PersistentFlags().StringVarP(&a.childFlag, "child", "c", "", "child id (defaults to the configured or only child)")
	root.PersistentFlags().StringVar(&a.tzFlag, "tz", "", "time zone for day views (defaults to the child's)")

	root.AddCommand(
		a.childCommand(),
		a.logCommand(),
		a.sleepCommand(),
		a.dayCommand(),
		a.weekCommand(),
		a.statusCommand(),
		a.listCommand(),
		a.deleteCommand(),
		a.importCommand(),
		a.clearCommand(),
	)
	a.closeAfterRun(root)
	return root
}

// closeAfterRun wraps every runnable command so the store is closed whether RunE fails or not.
// cobra skips post-run hooks after an error.
func (a *App) closeAfterRun(cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		a.closeAfterRun(child)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if closeErr := a.close(); err == nil {
				err = closeErr
			}
		}()
		return run(cmd, args)
	}
}

func (a *App) open(ctx context.Context) error {
	cfg, err := config.LoadCLI(a.configPath)
	if err != nil {
		return err
	}
	if a.dbFlag != "" {
		cfg.DBPath = a.dbFlag
	}
	if a.childFlag != "" {
		cfg.Subject = a.childFlag
	}
	if strings.TrimSpace(cfg.Caregiver) == "" {
		return fmt.Errorf("no caregiver configured: set BABYLOG_CAREGIVER or caregiver in %s", a.configPath)
	}
	a.cfg = cfg
	a.logger = observability.NewLoggerTo(a.stderr, "babylog", cfg.LogLevel)

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	a.store = store
	a.service = service.NewService(store, store,
		service.WithClock(a.now),
		service.WithLogger(a.logger),
		service.WithDefaultTimeZone(cfg.TimeZone),
	)
	a.logger.Debug().Str("db", cfg.DBPath).Msg("store opened")
	return nil
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) caregiver() service.Caregiver {
	return service.Caregiver{ID: a.cfg.Caregiver, Name: a.cfg.Name}
}

// subjectID resolves the child a command applies to: the flag or config value, otherwise the
// caregiver's only child.
func (a *App) subjectID(ctx context.Context) (string, error) {
	if a.cfg.Subject != "" {
		return a.cfg.Subject, nil
	}
	subjects, err := a.service.ListSubjects(ctx, a.cfg.Caregiver)
	if err != nil {
		return "", err
	}
	switch len(subjects) {
	case 0:
		return "", fmt.Errorf("no child yet: run `babylog child add NAME`")
	case 1:
		return subjects[0].ID, nil
	default:
		return "", fmt.Errorf("%d children tracked: pick one with --child", len(subjects))
	}
}

// location returns the zone used to read and print times for subjectID.
func (a *App) location(ctx context.Context, subjectID string) (*time.Location, error) {
	if a.tzFlag != "" {
		loc, err := time.LoadLocation(a.tzFlag)
		if err != nil {
			return nil, fmt.Errorf("--tz: %w", err)
		}
		return loc, nil
	}
	subject, err := a.service.GetSubject(ctx, subjectID, a.cfg.Caregiver)
	if err != nil {
		return nil, err
	}
	return subject.Location()
}

// Layouts accepted by --at, tried in order. Clock-only values refer to today.
var atLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "15:04", "3:04pm", "3pm"}

// parseAt reads a user supplied instant in loc. An empty value yields the zero time, which the
// service replaces with now.
func parseAt(value string, loc *time.Location, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	if lower == "" || lower == "now" {
		return time.Time{}, nil
	}
	if ago, ok := strings.CutSuffix(lower, " ago"); ok {
		d, err := time.ParseDuration(strings.ReplaceAll(ago, " ", ""))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --at %q: %w", value, err)
		}
		return now.Add(-d), nil
	}
	for _, layout := range atLayouts {
		candidate := value
		if strings.HasSuffix(layout, "pm") {
			candidate = lower
		}
		t, err := time.ParseInLocation(layout, candidate, loc)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			local := now.In(loc)
			t = time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: use HH:MM, \"YYYY-MM-DD HH:MM\", RFC 3339 or \"45m ago\"", value)
}
