package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/server"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Catalog is the chart source plus the lookups behind `chart --list-genres` and `chart --track`.
type Catalog interface {
	services.ChartSource
	Genres(ctx context.Context) ([]models.Genre, error)
	Track(ctx context.Context, trackID string) (*models.ChartEntry, error)
}

// Playlist is the YouTube side of a sync.
type Playlist interface {
	services.VideoSearch
	services.PlaylistStore
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Remote services are built lazily from configuration unless injected.
type Runner struct {
	config      *shared.Config
	configPath  string
	catalog     Catalog
	playlist    Playlist
	db          *sql.DB
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	now         func() time.Time
	removePacer tasks.Pacer
	searchPacer tasks.Pacer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Catalog     Catalog
	Playlist    Playlist
	DB          *sql.DB
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Clock       func() time.Time
	RemovePacer tasks.Pacer
	SearchPacer tasks.Pacer
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
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		catalog:     opts.Catalog,
		playlist:    opts.Playlist,
		db:          opts.DB,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		now:         opts.Clock,
		removePacer: opts.RemovePacer,
		searchPacer: opts.SearchPacer,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, chartCommand, authCommand, setupCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the env file and config, then applies environment overrides and log level.
//
// A missing config file falls back to the embedded defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnvFile(cmd.String("env-file")); err != nil {
		r.logger.Warn("failed to load env file", "error", err)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	r.config.ApplyEnv()

	if cmd.Bool("verbose") {
		r.SetLogLevel(log.DebugLevel)
	}
	return ctx, nil
}

// SetLogger replaces the logger, e.g. when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// SetLogLevel sets the level of the current logger.
func (r *Runner) SetLogLevel(level log.Level) {
	shared.SetLogLevel(r.logger, level)
}

// beatport returns the chart source, building the Beatport client on first use.
func (r *Runner) beatport() (Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	svc, err := services.NewBeatportService(r.config.Beatport, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.catalog = svc
	return svc, nil
}

// youtube returns the playlist service, authorizing with the stored token on first use.
func (r *Runner) youtube(ctx context.Context) (Playlist, error) {
	if r.playlist != nil {
		return r.playlist, nil
	}
	auth, err := services.NewYouTubeAuth(r.config.YouTube, r.redirectURL())
	if err != nil {
		return nil, err
	}
	client, err := auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewYouTubeService(ctx, client, r.config.YouTube.APIEndpoint, r.logger)
	if err != nil {
		return nil, err
	}
	r.playlist = svc
	return svc, nil
}

// redirectURL is the loopback callback registered with Google for `auth youtube`.
func (r *Runner) redirectURL() string {
	return fmt.Sprintf("http://%s:%d%s", r.config.Server.Host, r.config.Server.Port, server.CallbackPath)
}

// openDatabase opens the journal database and applies migrations. The returned func closes it
// unless the database was injected.
func (r *Runner) openDatabase() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
