package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/diogo/mybot/internal/chat"
	"github.com/diogo/mybot/internal/config"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/render"
	"github.com/diogo/mybot/internal/tui"
)

func newChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the assistant.

Commands typed into the input:
  /attach <file>...   select documents to upload
  /detach             clear the selection
  /upload             upload the selected documents
  /record             start or stop voice input (Ctrl+R)
  /speak              read the last answer aloud (Ctrl+T)
  /copy               copy the last answer (Ctrl+Y)
  /exit               leave (Esc, Ctrl+C)

Logs are written to ~/.mybot/mybot.log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps)
		},
	}
}

func runChat(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The screen owns the terminal, so logs go to a file.
	logger := deps.Logger
	if logger == nil {
		var closeLog func() error
		logger, closeLog = openChatLog(deps, cfg)
		defer func() { _ = closeLog() }()
	}

	client, err := deps.client(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []chat.SessionOption{chat.WithLogger(logger)}
	if cfg.Voice.Enabled {
		opts = append(opts,
			chat.WithRecorder(deps.recorder(cfg, logger)),
			chat.WithPlayback(deps.playback(cfg, logger)),
		)
	}
	session := chat.NewSession(client, opts...)
	defer session.Close()

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		logger.Warn("unknown TUI theme, using default", "theme", cfg.TUITheme)
	}
	tui.UpdateTheme()

	logger.Info("chat started", "base_url", cfg.BaseURL, "voice", cfg.Voice.Enabled)

	return deps.RunChat(session, tui.Options{
		BaseURL:  cfg.BaseURL,
		Markdown: cfg.Markdown,
		AutoPlay: cfg.Voice.AutoPlay,
		Logger:   logger,
	})
}

// openChatLog opens the chat log file, falling back to no logging
func openChatLog(deps *Dependencies, cfg config.Config) (*log.Logger, func() error) {
	noop := func() error { return nil }

	path, err := config.GetLogPath(cfg)
	if err != nil {
		fmt.Fprintln(deps.stderr(), warningLine(fmt.Sprintf("Logging disabled: %v", err)))
		return logging.Discard(), noop
	}

	logger, closeLog, err := logging.NewFile(path, logging.Options{Verbose: cfg.Verbose, Timestamps: true})
	if err != nil {
		fmt.Fprintln(deps.stderr(), warningLine(fmt.Sprintf("Logging disabled: %v", err)))
		return logging.Discard(), noop
	}
	return logger, closeLog
}
