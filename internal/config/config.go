package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"recommender/internal/logging"
)

// Environment variables that override file values.
const (
	EnvCatalog  = "RECOMMENDER_CATALOG"
	EnvAddr     = "RECOMMENDER_ADDR"
	EnvLogLevel = "RECOMMENDER_LOG_LEVEL"
)

// CatalogConfig points at the tabular source.
type CatalogConfig struct {
	Path         string `yaml:"path" validate:"required"`
	KeepUntagged bool   `yaml:"keep_untagged"`
}

// VectorizerConfig selects and configures the text vectorizer.
type VectorizerConfig struct {
	Type        string `yaml:"type" validate:"oneof=tfidf"`
	MaxFeatures int    `yaml:"max_features" validate:"min=-1"`
	StopWords   string `yaml:"stop_words" validate:"oneof=english none"`
}

// QueryConfig holds the limits the shells apply around engine queries.
type QueryConfig struct {
	DefaultK        int `yaml:"default_k" validate:"gtefield=MinK,ltefield=MaxK"`
	MinK            int `yaml:"min_k" validate:"min=1"`
	MaxK            int `yaml:"max_k" validate:"gtefield=MinK"`
	SuggestionLimit int `yaml:"suggestion_limit" validate:"min=1"`
	MinSearchChars  int `yaml:"min_search_chars" validate:"min=0"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	MetricsPath string `yaml:"metrics_path" validate:"omitempty,startswith=/"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Query      QueryConfig      `yaml:"query"`
	Server     ServerConfig     `yaml:"server"`
	Log        logging.Config   `yaml:"log"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/recommender/config.yaml.
// If neither exists, it writes defaults to ~/.config/recommender/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "recommender", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Catalog:    CatalogConfig{Path: "tmdb_5000_movies.csv"},
		Vectorizer: VectorizerConfig{Type: "tfidf", MaxFeatures: 5000, StopWords: "english"},
		Query:      QueryConfig{DefaultK: 10, MinK: 5, MaxK: 20, SuggestionLimit: 5, MinSearchChars: 3},
		Server:     ServerConfig{Addr: "127.0.0.1:8080", MetricsPath: "/metrics"},
		Log:        logging.Config{Level: "info", Format: "text"},
	}
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvCatalog); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}
