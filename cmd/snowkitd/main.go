package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snowkit-io/snowkit/internal/api"
	"github.com/snowkit-io/snowkit/internal/auth"
	"github.com/snowkit-io/snowkit/internal/calllog"
	"github.com/snowkit-io/snowkit/internal/config"
	"github.com/snowkit-io/snowkit/internal/incident"
	"github.com/snowkit-io/snowkit/internal/snow"
	"github.com/snowkit-io/snowkit/internal/tool"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file (env config is used when empty)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !*verbose && cfg.LogLevel == "debug" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	logger.Info("snowkitd starting", "instance", cfg.Instance.URL)

	manager, err := buildAuth(cfg)
	if err != nil {
		logger.Error("failed to build auth manager", "error", err)
		os.Exit(1)
	}

	calls := calllog.New(cfg.API.CallLogSize)
	client := snow.New(cfg.APIURL(), manager,
		snow.WithTimeout(time.Duration(cfg.Instance.Timeout)*time.Second),
		snow.WithLogger(logger),
		snow.WithCallLog(calls),
	)

	svc := incident.NewService(client, incident.NewResolver(client), logger)

	registry := tool.NewRegistry()
	tool.RegisterIncidentTools(registry, svc)
	logger.Info("tools registered", "tools", registry.Names())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(registry, api.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger, calls)

	if err := server.Start(ctx); err != nil {
		logger.Error("api server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("snowkitd stopped")
}

func buildAuth(cfg *config.Config) (auth.Manager, error) {
	switch cfg.Auth.Type {
	case "basic":
		return &auth.Basic{
			Username: cfg.Auth.Basic.Username,
			Password: cfg.Auth.Basic.Password,
		}, nil
	case "token":
		return &auth.Token{Token: cfg.Auth.Token}, nil
	case "apikey":
		return &auth.APIKey{
			Key:    cfg.Auth.APIKey.Key,
			Header: cfg.Auth.APIKey.Header,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Auth.Type)
	}
}
