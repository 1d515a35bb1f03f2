package trackingservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gensavor/internal/notifier"
	"gensavor/internal/store"
	"gensavor/internal/tracker"
	"gensavor/pkg/config"
	"gensavor/pkg/db"
	"gensavor/pkg/logger"
	"gensavor/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

type Params struct {
	Port int
}

// Server wires the customer tracker: a read-only store view, a hub
// fed by the orders fanout, and the unauthenticated HTTP surface.
type Server struct {
	cfg    *config.Config
	params Params
	log    *logger.Logger

	pool *pgxpool.Pool
	rmq  *rabbitmq.RabbitMQ
	srv  *http.Server
}

func NewServer(cfg *config.Config, params Params, log *logger.Logger) *Server {
	return &Server{cfg: cfg, params: params, log: log}
}

func (s *Server) Run(ctx context.Context) error {
	pool, err := db.Connect(ctx, &s.cfg.Database, s.log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.pool = pool

	rmq, err := rabbitmq.Connect(&s.cfg.RabbitMQ, s.log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	s.rmq = rmq

	orderStore := store.New(pool, s.log)
	hub := notifier.NewHub(orderStore, s.log)
	trk := tracker.New(orderStore, hub)
	handler := NewHandler(trk, orderStore, s.log)

	listener := notifier.NewListener(rmq, hub, s.log)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Action("listener_stopped").Error("Change event listener stopped", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("GET /track/{key}", handler.Track())
	mux.Handle("GET /track/{key}/stream", handler.TrackStream())
	mux.Handle("GET /track/{key}/history", handler.History())
	mux.Handle("GET /orders/search", handler.Search())
	mux.Handle("GET /healthz", handler.Healthz())

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.params.Port),
		Handler: mux,
	}

	s.log.Action("server_started").With("port", fmt.Sprint(s.params.Port)).Info("Tracking service is running")

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.stop()
	case err := <-errCh:
		return err
	}
}

func (s *Server) stop() error {
	s.log.Action("graceful_shutdown_started").Info("Shutting down tracking service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server", err)
		firstErr = err
	}
	if err := s.rmq.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.pool.Close()

	s.log.Action("graceful_shutdown_completed").Info("Tracking service stopped")
	return firstErr
}
