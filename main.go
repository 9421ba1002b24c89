package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketbot/marketbot"
	"marketbot/marketbot/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := marketbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
	slog.Info("Starting market bot",
		slog.String("version", version),
		slog.String("commit", commit))

	setupCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	bot, err := marketbot.New(setupCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("Failed to set up market bot", slog.Any("error", err))
		os.Exit(-1)
	}
	defer bot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Market bot exited with error", slog.Any("error", err))
		os.Exit(-1)
	}
}
