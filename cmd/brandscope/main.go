package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avirta/brandscope/internal/config"
	"github.com/avirta/brandscope/internal/dispatch"
	"github.com/avirta/brandscope/internal/provider"
	"github.com/avirta/brandscope/internal/query"
	"github.com/avirta/brandscope/internal/server"
	"github.com/avirta/brandscope/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	ephemeral := flag.Bool("ephemeral", false, "Keep all state in memory instead of the database file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Brandscope %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// A .env file is optional; BRANDSCOPE_* variables override the YAML config.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Brandscope", "version", version)

	var st store.Store
	if *ephemeral {
		st = store.NewMemory()
		slog.Info("Using in-memory store")
	} else {
		sqlite, err := store.OpenSQLite(cfg.Database.Path)
		if err != nil {
			slog.Error("Failed to open database", "error", err)
			os.Exit(1)
		}
		st = sqlite
		slog.Info("Database initialized", "path", cfg.Database.Path)
	}
	defer st.Close()

	dispatcher := dispatch.New(
		provider.Defaults(),
		time.Duration(cfg.Dispatch.TimeoutSeconds)*time.Second,
		cfg.Dispatch.MaxConcurrent,
	)
	queries := query.NewService(st, dispatcher)

	srv := server.New(cfg, st, queries, version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
