package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/peerlink/internal/client/cli"
	"github.com/dmitrijs2005/peerlink/internal/client/config"
	"github.com/dmitrijs2005/peerlink/internal/logging"
)

func main() {
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	app.Root(context.Background())
}
