// Package server initializes and runs the directory server: it wires the
// storage backend, the directory service, the archive sink and the relay
// hub into one HTTP endpoint and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/peerlink/internal/archive"
	"github.com/dmitrijs2005/peerlink/internal/credentials"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/directory"
	"github.com/dmitrijs2005/peerlink/internal/server/httpapi"
	"github.com/dmitrijs2005/peerlink/internal/server/relay"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *directory.Store
	service *directory.Service
	sink    *archive.AsyncSink
	server  *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()

	var store *directory.Store
	if c.DatabaseDSN != "" {
		var err error
		store, err = directory.NewPostgresStore(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	} else {
		logger.Info(ctx, "no database DSN configured, using in-memory storage")
		store = directory.NewInMemoryStore()
	}

	service := directory.NewService(store.Repository(), credentials.NewIssuer(), logger)

	var inner archive.Sink
	if c.S3Bucket != "" {
		s3sink, err := archive.NewS3Sink(ctx, archive.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		inner = s3sink
	} else {
		logger.Info(ctx, "no archive bucket configured, using in-memory archive")
		inner = archive.NewMemorySink()
	}
	sink := archive.NewAsyncSink(inner, logger)

	hub := relay.NewHub(logger, service, sink)
	handler := httpapi.NewHandler(service, hub, sink, logger)
	server := httpapi.NewServer(c.EndpointAddr, handler, hub, logger)

	return &App{
		config:  c,
		logger:  logger,
		store:   store,
		service: service,
		sink:    sink,
		server:  server,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	// drain the archive queue, then release storage
	app.sink.Close()
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
