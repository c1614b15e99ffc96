// Package config loads lectern settings from a TOML file with environment
// overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	GeminiAPIKey string
	Model        string // Gemini model name
	NotesDir     string // where exported notes and audio land
	InputDevice  string // optional capture device override
	NotesPrompt  string // optional instructional prompt override
}

type fileConfig struct {
	GeminiAPIKey string `toml:"gemini_api_key"`
	Model        string `toml:"model"`
	NotesDir     string `toml:"notes_dir"`
	InputDevice  string `toml:"input_device"`
	NotesPrompt  string `toml:"notes_prompt"`
}

func Load() (*Config, error) {
	cfg := &Config{
		NotesDir: defaultNotesDir(),
	}

	if path := configFilePath(); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err == nil {
			cfg.GeminiAPIKey = fc.GeminiAPIKey
			cfg.Model = fc.Model
			cfg.InputDevice = fc.InputDevice
			cfg.NotesPrompt = fc.NotesPrompt
			if fc.NotesDir != "" {
				cfg.NotesDir = expandTilde(fc.NotesDir)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := os.MkdirAll(cfg.NotesDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LECTERN_GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("LECTERN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LECTERN_NOTES_DIR"); v != "" {
		cfg.NotesDir = expandTilde(v)
	}
	if v := os.Getenv("LECTERN_INPUT"); v != "" {
		cfg.InputDevice = v
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "lectern")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "lectern")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultNotesDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "lectures")
	}
	return filepath.Join(".", "lectures")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
