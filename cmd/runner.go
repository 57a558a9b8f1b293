package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/board"
	"github.com/desertthunder/dexwatch/internal/journal"
	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
	"github.com/desertthunder/dexwatch/internal/sse"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client // Used by stream connections; must not set a timeout
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
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, watchCommand, endpointCommand, tuiCommand, journalCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent actions.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig returns the config named by --config, or the one the runner was created with.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if !cmd.IsSet("config") {
		return r.config, nil
	}

	configPath := cmd.String("config")
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}
	shared.ApplyEnv(config)
	r.logger.Debug("loaded config", "path", configPath)
	return config, nil
}

// resolveLocation parses a page location. A bare path is resolved against server.base_url.
func resolveLocation(config *shared.Config, raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: location", shared.ErrMissingArgument)
	}

	loc, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %v", shared.ErrInvalidArgument, raw, err)
	}
	if loc.IsAbs() {
		return loc, nil
	}

	base, err := url.Parse(config.Server.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: server.base_url %q is not an absolute URL", shared.ErrInvalidConfig, config.Server.BaseURL)
	}
	return base.ResolveReference(loc), nil
}

// gameFromLocation returns the last path segment, which names the game on a dex page.
func gameFromLocation(loc *url.URL) string {
	if loc == nil {
		return ""
	}
	p := strings.TrimSuffix(loc.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// loadBoard builds the board for the game picked by --game, then the config, then the location,
// falling back to the first game of the layout.
func (r *Runner) loadBoard(cmd *cli.Command, config *shared.Config, loc *url.URL) (*board.Board, error) {
	layoutPath := config.Layout.Path
	if cmd.IsSet("layout") {
		layoutPath = cmd.String("layout")
	}

	layout, err := board.LoadLayout(layoutPath)
	if err != nil {
		return nil, err
	}

	if id := cmd.String("game"); id != "" {
		return board.New(layout, id)
	}
	for _, id := range []string{config.Layout.Game, gameFromLocation(loc)} {
		if _, ok := layout.Game(id); ok {
			return board.New(layout, id)
		}
	}

	r.logger.Debug("no game selected, using first game of layout", "game", layout.Games[0].ID)
	return board.New(layout, layout.Games[0].ID)
}

func (r *Runner) newClient(config *shared.Config, status chan<- sse.StatusUpdate) *sse.Client {
	return sse.NewClient(sse.ClientOpts{
		HTTPClient:    r.httpClient,
		Logger:        r.logger,
		Retry:         config.Stream.Retry(),
		MaxBackoff:    config.Stream.MaxBackoff(),
		ReconnectRate: config.Stream.ReconnectRate,
		Headers:       config.Stream.Headers,
		Status:        status,
	})
}

// openJournal opens the journal when --journal is set or the config enables it. It returns nil
// when journaling is off.
func (r *Runner) openJournal(cmd *cli.Command, config *shared.Config) (*journal.Journal, error) {
	cfg := config.Journal
	if cmd.IsSet("journal") {
		cfg.Enabled = true
		cfg.Path = cmd.String("journal")
	}
	if !cfg.Enabled {
		return nil, nil
	}

	j, err := journal.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	r.logger.Debug("journal enabled", "path", cfg.Path)
	return j, nil
}

// startManager subscribes using --marker when given, otherwise the location fragment.
func startManager(ctx context.Context, m *livesync.Manager, cmd *cli.Command, loc *url.URL) error {
	if marker := cmd.String("marker"); marker != "" {
		return m.StartWithMarker(ctx, loc, marker)
	}
	return m.Start(ctx, loc)
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
