package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/diogo/mybot/internal/api"
	"github.com/diogo/mybot/internal/chat"
	"github.com/diogo/mybot/internal/config"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/tui"
	"github.com/diogo/mybot/internal/voice"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing. Nil fields are
// built from the user configuration.
type Dependencies struct {
	// Config overrides ~/.mybot/config.json.
	Config *config.Config

	// Client is the assistant service client.
	Client api.ClientInterface

	// Recorder and Player back the voice commands.
	Recorder voice.Recorder
	Player   voice.Player

	// Logger receives CLI diagnostics.
	Logger *log.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// RunChat starts the interactive screen.
	RunChat func(session *chat.Session, opts tui.Options) error

	// flags shared by every command
	baseURL string
	verbose bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		RunChat: tui.RunChat,
	}
}

func (d *Dependencies) stdin() io.Reader {
	if d.Stdin == nil {
		return os.Stdin
	}
	return d.Stdin
}

func (d *Dependencies) stdout() io.Writer {
	if d.Stdout == nil {
		return os.Stdout
	}
	return d.Stdout
}

func (d *Dependencies) stderr() io.Writer {
	if d.Stderr == nil {
		return os.Stderr
	}
	return d.Stderr
}

// loadConfig returns the effective configuration, with flags applied
func (d *Dependencies) loadConfig() (config.Config, error) {
	var cfg config.Config
	if d.Config != nil {
		cfg = *d.Config
	} else {
		loaded, err := config.LoadConfig()
		if err != nil {
			return loaded, err
		}
		cfg = loaded
	}

	if d.baseURL != "" {
		cfg.BaseURL = d.baseURL
	}
	if d.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// logger returns the CLI logger. Only warnings reach stderr unless verbose.
func (d *Dependencies) logger(cfg config.Config) *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.New(d.stderr(), logging.Options{
		Level:   "warn",
		Verbose: cfg.Verbose,
		Prefix:  "mybot",
	})
}

// client returns the injected client or dials the configured service
func (d *Dependencies) client(cfg config.Config, logger *log.Logger) (api.ClientInterface, error) {
	if d.Client != nil {
		return d.Client, nil
	}

	client, err := api.NewClient(
		api.WithBaseURL(cfg.BaseURL),
		api.WithTimeoutSeconds(cfg.RequestTimeout),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (d *Dependencies) recorder(cfg config.Config, logger *log.Logger) voice.Recorder {
	if d.Recorder != nil {
		return d.Recorder
	}
	return voice.NewCommandRecorder(cfg.Voice.RecordCommand, cfg.Voice.RecordMIME, logger)
}

func (d *Dependencies) player(cfg config.Config) voice.Player {
	if d.Player != nil {
		return d.Player
	}
	return voice.NewCommandPlayer(cfg.Voice.PlayCommand)
}

// playback builds a manager that keeps speech in temp files
func (d *Dependencies) playback(cfg config.Config, logger *log.Logger) *voice.PlaybackManager {
	return voice.NewPlaybackManager(voice.NewTempFileStore(""), d.player(cfg), logger)
}
