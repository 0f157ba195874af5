package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
)

// Server owns the HTTP listener: the directory API plus the relay websocket
// endpoint mounted at /ws.
type Server struct {
	address string
	handler *Handler
	relay   http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler *Handler, relay http.Handler, logger logging.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		relay:   relay,
		logger:  logger.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	mux := http.NewServeMux()
	s.handler.Routes(mux)
	if s.relay != nil {
		mux.Handle("GET /ws", s.relay)
	}

	srv := &http.Server{
		Addr:    s.address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
