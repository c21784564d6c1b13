package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/diogo/mybot/internal/models"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvLogFile, "")
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != models.DefaultBaseURL {
		t.Errorf("Expected default base URL %s, got %s", models.DefaultBaseURL, cfg.BaseURL)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("Expected no request timeout by default, got %d", cfg.RequestTimeout)
	}
	if cfg.Verbose {
		t.Error("Expected Verbose to be false")
	}
	if !cfg.Voice.Enabled {
		t.Error("Expected voice features to be enabled by default")
	}
	if len(cfg.Voice.RecordCommand) == 0 || len(cfg.Voice.PlayCommand) == 0 {
		t.Error("Expected default voice commands")
	}
}

func TestGetConfigPath(t *testing.T) {
	home := setupHome(t)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	want := filepath.Join(home, ".mybot", "config.json")
	if path != want {
		t.Errorf("GetConfigPath() = %s, want %s", path, want)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	setupHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	setupHome(t)

	cfg := DefaultConfig()
	cfg.BaseURL = "http://assistant.local:9000"
	cfg.Verbose = true
	cfg.Voice.AutoPlay = false

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	path, _ := GetConfigPath()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("LoadConfig() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	setupHome(t)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("Expected parse error")
	}
	if cfg.BaseURL != models.DefaultBaseURL {
		t.Errorf("Expected defaults on parse error, got base URL %s", cfg.BaseURL)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	setupHome(t)
	t.Setenv(EnvBaseURL, "https://bot.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://bot.example.com" {
		t.Errorf("BaseURL = %s, want env override without trailing slash", cfg.BaseURL)
	}

	fileCfg, err := LoadFileConfig()
	if err != nil {
		t.Fatal(err)
	}
	if fileCfg.BaseURL != models.DefaultBaseURL {
		t.Errorf("LoadFileConfig() BaseURL = %s, env must not apply", fileCfg.BaseURL)
	}
}

func TestGetLogPath(t *testing.T) {
	home := setupHome(t)

	path, err := GetLogPath(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(home, ".mybot", "mybot.log") {
		t.Errorf("GetLogPath() = %s", path)
	}

	cfg := DefaultConfig()
	cfg.LogFile = "/tmp/custom.log"
	if path, _ := GetLogPath(cfg); path != "/tmp/custom.log" {
		t.Errorf("GetLogPath() = %s, want configured file", path)
	}

	t.Setenv(EnvLogFile, "/tmp/env.log")
	if path, _ := GetLogPath(cfg); path != "/tmp/env.log" {
		t.Errorf("GetLogPath() = %s, want env file", path)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(Config) bool
	}{
		{"base_url", "http://10.0.0.2:8000/", false, func(c Config) bool { return c.BaseURL == "http://10.0.0.2:8000" }},
		{"base_url", "ftp://nope", true, nil},
		{"request_timeout", "30", false, func(c Config) bool { return c.RequestTimeout == 30 }},
		{"request_timeout", "-1", true, nil},
		{"verbose", "true", false, func(c Config) bool { return c.Verbose }},
		{"verbose", "maybe", true, nil},
		{"voice.enabled", "false", false, func(c Config) bool { return !c.Voice.Enabled }},
		{"voice.record_command", "sox -d -t wav -", false, func(c Config) bool {
			return reflect.DeepEqual(c.Voice.RecordCommand, []string{"sox", "-d", "-t", "wav", "-"})
		}},
		{"markdown.style", "light", false, func(c Config) bool { return c.Markdown.Style == "light" }},
		{"unknown", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := Set(&cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Set(%s, %s) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("Keys() not sorted: %v", keys)
		}
	}
}
