// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chojar/kuma/internal/wiki"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Locale    LocaleConfig    `yaml:"locale"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Database  DatabaseConfig  `yaml:"database"`
	Moves     MovesConfig     `yaml:"moves"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`

	// ExperimentsPath points at the content-experiment configuration,
	// loaded once at startup.
	ExperimentsPath string `yaml:"experiments_path,omitempty"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode selects the default response shape: "wiki" (HTML pages) or
	// "api" (JSON payloads).
	Mode string `yaml:"mode"`
	// BaseURL is the public origin of this server, no trailing slash.
	BaseURL string `yaml:"base_url"`
	// WikiBaseURL is the origin of the wiki (editing) domain.
	WikiBaseURL string `yaml:"wiki_base_url"`
}

// LocaleConfig configures locale handling.
type LocaleConfig struct {
	Default string `yaml:"default"`
}

// RendererConfig points at the remote macro-expansion service.
type RendererConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig configures the SQLite document store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MovesConfig configures async page-move submission over NATS.
type MovesConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// SchedulerConfig configures the background re-render scheduler.
type SchedulerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	StaleAge  time.Duration `yaml:"stale_age"`
	BatchSize int           `yaml:"batch_size"`
}

// AuthConfig maps bearer tokens to users. Permission evaluation itself lives
// outside this service; handlers only consume the boolean flags carried
// here.
type AuthConfig struct {
	Tokens []TokenUser `yaml:"tokens,omitempty"`
}

// TokenUser is one authenticated principal.
type TokenUser struct {
	Token      string `yaml:"token"`
	UserID     int64  `yaml:"user_id"`
	Username   string `yaml:"username"`
	CanRestore bool   `yaml:"can_restore,omitempty"`
	CanMove    bool   `yaml:"can_move,omitempty"`
}

// Load reads configuration from path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8000",
			Mode:        "wiki",
			BaseURL:     "http://localhost:8000",
			WikiBaseURL: "http://localhost:8000",
		},
		Locale:   LocaleConfig{Default: wiki.DefaultLocale},
		Renderer: RendererConfig{Timeout: 10 * time.Second},
		Database: DatabaseConfig{Path: "kuma.db"},
		Moves:    MovesConfig{Subject: "wiki.moves"},
		Scheduler: SchedulerConfig{
			Interval:  10 * time.Minute,
			StaleAge:  24 * time.Hour,
			BatchSize: 25,
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Server.Mode != "wiki" && c.Server.Mode != "api" {
		return fmt.Errorf("config: server.mode must be \"wiki\" or \"api\", got %q", c.Server.Mode)
	}
	if c.Locale.Default == "" {
		return fmt.Errorf("config: locale.default is required")
	}
	if c.Moves.Enabled && c.Moves.NATSURL == "" {
		return fmt.Errorf("config: moves.nats_url is required when moves are enabled")
	}
	if c.Scheduler.Enabled && c.Renderer.URL == "" {
		return fmt.Errorf("config: renderer.url is required when the scheduler is enabled")
	}
	return nil
}

// Init writes an example configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := defaults()
	exampleConfig.Renderer.URL = "http://localhost:9080"
	exampleConfig.Auth.Tokens = []TokenUser{
		{
			Token:    "CHANGE_ME",
			UserID:   1,
			Username: "admin",
			CanMove:  true,
		},
	}

	data, err := yaml.Marshal(exampleConfig)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", configPath, err)
	}
	return nil
}

// LoadExperiments reads the content-experiment configuration. The result is
// process-wide, read-only state; it is loaded exactly once at startup and
// injected where needed. A missing path means no experiments.
func LoadExperiments(path string) ([]wiki.Experiment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiments %s: %w", path, err)
	}
	var wrapper struct {
		Experiments []wiki.Experiment `yaml:"experiments"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse experiments %s: %w", path, err)
	}
	for _, exp := range wrapper.Experiments {
		if exp.ID == "" || exp.Param == "" {
			return nil, fmt.Errorf("experiments %s: every experiment needs id and param", path)
		}
	}
	return wrapper.Experiments, nil
}
