package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/peerlink/internal/server"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("init error: %s", err.Error())
	}

	app.Run(context.Background())
}
