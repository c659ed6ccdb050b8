package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/cache"
	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/repositories"
	"github.com/desertthunder/ssx/internal/services"
	"github.com/desertthunder/ssx/internal/session"
	"github.com/desertthunder/ssx/internal/shared"
	"github.com/desertthunder/ssx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, session and sync controller are built on first use so commands that
// only touch configuration never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	session    *session.Accessor
	client     *services.Client
	spotify    *services.SpotifyService
	sync       *tasks.SnapshotSync
	notifier   tasks.Notifier
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, playlistsCommand, refreshCommand, debugCommand,
		spotifyCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure resolves the configuration named by --config and applies the log level.
//
// It runs before every command.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.configPath = path

	level := shared.ParseLogLevel(config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger replaces the logger used by every component built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database when the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db, r.ownsDB = db, true
	return db, nil
}

func (r *Runner) accessor() (*session.Accessor, error) {
	if r.session != nil {
		return r.session, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.session = session.NewAccessor(
		repositories.NewCookieRepository(db),
		shared.WithLogger(r.logger, "component", "session"),
		session.WithUsername(r.config.Session.Username),
		session.WithBaseURL(r.config.API.BaseURL),
		session.WithCookieDays(r.config.Session.CookieDays),
	)
	return r.session, nil
}

func (r *Runner) timeout() time.Duration {
	if r.config.API.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.config.API.TimeoutSeconds) * time.Second
}

// snapshots builds the backend client and sync controller, then loads the storage mirror.
func (r *Runner) snapshots() (*tasks.SnapshotSync, error) {
	if r.sync != nil {
		return r.sync, nil
	}
	acc, err := r.accessor()
	if err != nil {
		return nil, err
	}

	hc := *r.httpClient
	hc.Jar = acc
	if hc.Timeout == 0 {
		hc.Timeout = r.timeout()
	}
	r.client = services.NewClient(r.config.API.BaseURL, &hc,
		services.WithTokenSource(acc),
		services.WithRateLimit(r.config.API.RequestsPerSecond),
		services.WithLogger(shared.WithLogger(r.logger, "component", "client")),
	)

	notifier := r.notifier
	if notifier == nil {
		notifier = tasks.NewLogNotifier(shared.WithLogger(r.logger, "component", "notify"))
	}
	r.sync = tasks.NewSnapshotSync(r.client, acc,
		tasks.WithMirror(cache.NewMirror(repositories.NewLocalStorageRepository(r.db))),
		tasks.WithNotifier(notifier),
		tasks.WithLogger(r.logger),
		tasks.WithRefreshDelays(
			time.Duration(r.config.Refresh.TracksDelayMS)*time.Millisecond,
			time.Duration(r.config.Refresh.PlaylistsDelayMS)*time.Millisecond,
		),
	)
	if err := r.sync.LoadFromStorage(); err != nil {
		r.logger.Warn("failed to load cached snapshots", "error", err)
	}
	return r.sync, nil
}

func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	acc, err := r.accessor()
	if err != nil {
		return nil, err
	}
	if !acc.IsLoggedIn() {
		return nil, shared.ErrNotLoggedIn
	}

	hc := *r.httpClient
	if hc.Timeout == 0 {
		hc.Timeout = r.timeout()
	}
	r.spotify = services.NewSpotifyService(services.NewClient(r.config.Spotify.APIURL, &hc,
		services.WithTokenSource(acc),
		services.WithLogger(shared.WithLogger(r.logger, "component", "spotify")),
	))
	return r.spotify, nil
}

// outputFormat reads --json and --format; --json wins.
func outputFormat(cmd *cli.Command) (formatter.Format, error) {
	if cmd.Bool("json") {
		return formatter.FormatJSON, nil
	}
	return formatter.ParseFormat(cmd.String("format"))
}

// timestampArg parses the "timestamp" argument as unix seconds.
func timestampArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("timestamp")
	if raw == "" {
		return 0, fmt.Errorf("%w: snapshot timestamp", shared.ErrMissingArgument)
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ts <= 0 {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidTimestamp, raw)
	}
	return ts, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeRendered writes formatter output, adding a trailing newline when missing.
func (r *Runner) writeRendered(data []byte, err error) error {
	if err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
