package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  addr: \":9000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "wiki", cfg.Server.Mode)
	require.Equal(t, "en-US", cfg.Locale.Default)
	require.Equal(t, 10*time.Second, cfg.Renderer.Timeout)
	require.Equal(t, "wiki.moves", cfg.Moves.Subject)
	require.Equal(t, 25, cfg.Scheduler.BatchSize)
}

func TestLoadValidatesMode(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  mode: banana\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.mode")
}

func TestLoadValidatesMoves(t *testing.T) {
	path := writeFile(t, "config.yaml", "moves:\n  enabled: true\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nats_url")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("KUMA_ADDR", ":7000")
	t.Setenv("KUMA_DEFAULT_LOCALE", "fr")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Server.Addr)
	require.Equal(t, "fr", cfg.Locale.Default)
}

func TestLoadAuthTokens(t *testing.T) {
	path := writeFile(t, "config.yaml", `
auth:
  tokens:
    - token: secret
      user_id: 7
      username: mover
      can_move: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Auth.Tokens, 1)
	require.Equal(t, "mover", cfg.Auth.Tokens[0].Username)
	require.True(t, cfg.Auth.Tokens[0].CanMove)
	require.False(t, cfg.Auth.Tokens[0].CanRestore)
}

func TestLoadExperiments(t *testing.T) {
	path := writeFile(t, "experiments.yaml", `
experiments:
  - id: experiment-titles
    ga_name: titles
    param: v
    pages:
      "en-US:Web/CSS":
        a: Web/CSS
        b: Experiment:Titles/Web/CSS
`)

	experiments, err := LoadExperiments(path)
	require.NoError(t, err)
	require.Len(t, experiments, 1)
	require.Equal(t, "experiment-titles", experiments[0].ID)
	require.Equal(t, "Experiment:Titles/Web/CSS", experiments[0].Pages["en-US:Web/CSS"]["b"])

	experiments, err = LoadExperiments("")
	require.NoError(t, err)
	require.Empty(t, experiments)
}

func TestLoadExperimentsRejectsIncomplete(t *testing.T) {
	path := writeFile(t, "experiments.yaml", "experiments:\n  - id: nameless\n")

	_, err := LoadExperiments(path)
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.Server.Addr)
	require.Len(t, cfg.Auth.Tokens, 1)

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
