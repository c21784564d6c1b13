// Package config handles configuration for mybot.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/diogo/mybot/internal/models"
)

// Environment variables that override the config file
const (
	EnvBaseURL = "MYBOT_BASE_URL"
	EnvLogFile = "MYBOT_LOG_FILE"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// VoiceConfig configures audio capture and playback.
// Commands are argv lists; the recorder must write audio to stdout and the
// player receives the audio file path as its last argument.
type VoiceConfig struct {
	Enabled       bool     `json:"enabled"`
	RecordCommand []string `json:"record_command"`
	RecordMIME    string   `json:"record_mime"`
	PlayCommand   []string `json:"play_command"`
	AutoPlay      bool     `json:"auto_play"`
}

// Config represents the user configuration
type Config struct {
	// BaseURL is the address of the assistant service.
	BaseURL string `json:"base_url"`
	// RequestTimeout in seconds; 0 leaves requests unbounded.
	RequestTimeout int `json:"request_timeout"`
	// Verbose enables debug logging.
	Verbose bool `json:"verbose"`
	// LogFile receives the TUI's log output. Empty means ~/.mybot/mybot.log.
	LogFile         string         `json:"log_file,omitempty"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
	Voice           VoiceConfig    `json:"voice"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultVoiceConfig returns the default voice configuration
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Enabled:       true,
		RecordCommand: []string{"arecord", "-q", "-f", "cd", "-t", "wav"},
		RecordMIME:    "audio/wav",
		PlayCommand:   []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		AutoPlay:      true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         models.DefaultBaseURL,
		RequestTimeout:  0,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		Voice:           DefaultVoiceConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".mybot"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the TUI log file path for cfg
func GetLogPath(cfg Config) (string, error) {
	if env := os.Getenv(EnvLogFile); env != "" {
		return env, nil
	}
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mybot.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg, err := LoadFileConfig()
	return applyEnv(cfg), err
}

// LoadFileConfig loads the configuration file without environment
// overrides. A missing file yields the defaults.
func LoadFileConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg Config) Config {
	if base := os.Getenv(EnvBaseURL); base != "" {
		cfg.BaseURL = base
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = models.DefaultBaseURL
	}
	return cfg
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps settable keys to their parsers
var setters = map[string]func(*Config, string) error{
	"base_url": func(c *Config, v string) error {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("base_url must start with http:// or https://")
		}
		c.BaseURL = strings.TrimRight(v, "/")
		return nil
	},
	"request_timeout": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("request_timeout must be a non-negative integer")
		}
		c.RequestTimeout = n
		return nil
	},
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"log_file": func(c *Config, v string) error {
		c.LogFile = v
		return nil
	},
	"tui_theme": func(c *Config, v string) error {
		c.TUITheme = v
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		c.Markdown.Style = v
		return nil
	},
	"markdown.enable_emoji":      boolSetter(func(c *Config) *bool { return &c.Markdown.EnableEmoji }),
	"markdown.preserve_newlines": boolSetter(func(c *Config) *bool { return &c.Markdown.PreserveNewLines }),
	"voice.enabled":              boolSetter(func(c *Config) *bool { return &c.Voice.Enabled }),
	"voice.auto_play":            boolSetter(func(c *Config) *bool { return &c.Voice.AutoPlay }),
	"voice.record_command": func(c *Config, v string) error {
		c.Voice.RecordCommand = strings.Fields(v)
		return nil
	},
	"voice.record_mime": func(c *Config, v string) error {
		c.Voice.RecordMIME = v
		return nil
	},
	"voice.play_command": func(c *Config, v string) error {
		c.Voice.PlayCommand = strings.Fields(v)
		return nil
	},
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

// Set updates a single key of cfg from its string form
func Set(cfg *Config, key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := setter(cfg, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
