package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path (skipped when path is empty), merges .env
// and process environment overrides, then validates.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline is Load for commands that only read local state; the Gemini
// API keys may be missing.
func LoadOffline(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateOffline(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg, os.LookupEnv)
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv binds the environment variables documented in the README onto cfg.
// Set variables always win over the file.
func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("GEMINI_SCRIPT_MODEL", &cfg.Gemini.ScriptModel)
	str("GEMINI_TTS_MODEL", &cfg.Gemini.TTSModel)
	str("GEMINI_SELECTOR_MODEL", &cfg.Gemini.SelectorModel)
	str("PAPER_DATE", &cfg.Pipeline.PaperDate)
	str("YOUTUBE_REFRESH_TOKEN", &cfg.YouTube.RefreshToken)
	str("YOUTUBE_CLIENT_ID", &cfg.YouTube.ClientID)
	str("YOUTUBE_CLIENT_SECRET", &cfg.YouTube.ClientSecret)
	str("YOUTUBE_VIDEO_PRIVACY_STATUS", &cfg.YouTube.PrivacyStatus)

	var keys []string
	if v, ok := lookup("GEMINI_API_KEYS"); ok {
		keys = append(keys, cleanList([]string{v})...)
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok {
		keys = append(keys, cleanList([]string{v})...)
	}
	if len(keys) > 0 {
		cfg.Gemini.APIKeys = keys
	}

	if v, ok := lookup("ARXIV_CATEGORIES"); ok {
		if cats := cleanList([]string{v}); len(cats) > 0 {
			cfg.Arxiv.Categories = cats
		}
	}
}
