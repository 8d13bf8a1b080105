package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/chojar/kuma/internal/config"
	"github.com/chojar/kuma/internal/kumascript"
	"github.com/chojar/kuma/internal/moves"
	"github.com/chojar/kuma/internal/scheduler"
	"github.com/chojar/kuma/internal/server"
	"github.com/chojar/kuma/internal/storage/sqlite"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Serve wiki documents over HTTP"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	// .env values feed the KUMA_* overrides read during config load.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "serve":
		if err := runServe(CLI.Config); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	experiments, err := config.LoadExperiments(cfg.ExperimentsPath)
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	renderer := kumascript.NewClient(cfg.Renderer.URL, cfg.Renderer.Timeout)

	var moveQueue moves.Queue
	if cfg.Moves.Enabled {
		nq, err := moves.NewNATSQueue(cfg.Moves.NATSURL, cfg.Moves.Subject)
		if err != nil {
			return fmt.Errorf("connect move queue: %w", err)
		}
		defer nq.Close()
		moveQueue = nq
	} else {
		moveQueue = &moves.MemoryQueue{}
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(store, renderer, cfg.Server.BaseURL,
			cfg.Scheduler.StaleAge, cfg.Scheduler.BatchSize)
		if err != nil {
			return err
		}
		if err := sched.Start(cfg.Scheduler.Interval); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", "error", err)
			}
		}()
	}

	srv := server.New(server.Options{
		Config:      cfg,
		Store:       store,
		Renderer:    renderer,
		Experiments: experiments,
		MoveQueue:   moveQueue,
	})

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	slog.Info("Server started",
		"addr", cfg.Server.Addr,
		"mode", cfg.Server.Mode,
		"renderer", renderer.Enabled(),
		"experiments", len(experiments))

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-runCtx.Done():
		slog.Info("Shutdown signal received, stopping server...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
