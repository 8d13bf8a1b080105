package config

import (
	"log/slog"
	"os"
	"time"
)

// applyEnv overlays KUMA_* environment variables on the loaded config.
// Environment wins over the file so deployments can override without
// editing it.
func applyEnv(cfg *Config) {
	if v := os.Getenv("KUMA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("KUMA_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("KUMA_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("KUMA_WIKI_BASE_URL"); v != "" {
		cfg.Server.WikiBaseURL = v
	}
	if v := os.Getenv("KUMA_DEFAULT_LOCALE"); v != "" {
		cfg.Locale.Default = v
	}
	if v := os.Getenv("KUMA_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KUMA_RENDERER_URL"); v != "" {
		cfg.Renderer.URL = v
	}
	if v := os.Getenv("KUMA_RENDERER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Renderer.Timeout = d
		} else {
			slog.Warn("ignoring invalid KUMA_RENDERER_TIMEOUT", "value", v)
		}
	}
	if v := os.Getenv("KUMA_NATS_URL"); v != "" {
		cfg.Moves.NATSURL = v
		cfg.Moves.Enabled = true
	}
	if v := os.Getenv("KUMA_EXPERIMENTS_PATH"); v != "" {
		cfg.ExperimentsPath = v
	}
}
