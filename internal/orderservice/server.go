package orderservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gensavor/internal/lifecycle"
	"gensavor/internal/menu"
	"gensavor/internal/metrics"
	"gensavor/internal/notifier"
	"gensavor/internal/store"
	"gensavor/pkg/config"
	"gensavor/pkg/db"
	"gensavor/pkg/logger"
	"gensavor/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

type Params struct {
	Port int
}

// Server wires the order service: durable store, change notifier,
// lifecycle engine and the staff/customer HTTP surface.
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

// Run starts the service and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	pool, err := db.Connect(ctx, &s.cfg.Database, s.log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.pool = pool

	orderStore := store.New(pool, s.log)
	if err := orderStore.Migrate(ctx); err != nil {
		return err
	}

	rmq, err := rabbitmq.Connect(&s.cfg.RabbitMQ, s.log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	s.rmq = rmq

	catalog := menu.NewCatalog(pool)
	hub := notifier.NewHub(orderStore, s.log)
	publisher := notifier.NewPublisher(rmq, s.log)
	engine := lifecycle.NewEngine(orderStore, publisher, hub, s.log)
	service := NewService(orderStore, catalog, hub, publisher, s.log)
	handler := NewHandler(service, engine, orderStore, catalog, hub, s.log)

	// Other writers (nothing today, but the topology allows more
	// order-service replicas) reach this process through the fanout.
	listener := notifier.NewListener(rmq, hub, s.log)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Action("listener_stopped").Error("Change event listener stopped", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("POST /orders", handler.Checkout())
	mux.Handle("POST /orders/{id}/status", handler.Transition())
	mux.Handle("GET /orders", handler.AdminFeed())
	mux.Handle("GET /orders/stream", handler.AdminStream())
	mux.Handle("GET /kitchen/queue", handler.KitchenQueue())
	mux.Handle("GET /kitchen/stream", handler.KitchenStream())
	mux.Handle("GET /dispatch/queue", handler.DispatchQueue())
	mux.Handle("GET /dispatch/stream", handler.DispatchStream())
	mux.Handle("GET /analytics/summary", handler.AnalyticsSummary())
	mux.Handle("GET /analytics/daily", handler.AnalyticsDaily())
	mux.Handle("GET /analytics/bestsellers", handler.AnalyticsBestSellers())
	mux.Handle("GET /menu", handler.Menu())
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /healthz", handler.Healthz())

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.params.Port),
		Handler: mux,
	}

	s.log.Action("server_started").With("port", fmt.Sprint(s.params.Port)).Info("Order service is running")

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
	s.log.Action("graceful_shutdown_started").Info("Shutting down order service")

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

	s.log.Action("graceful_shutdown_completed").Info("Order service stopped")
	return firstErr
}
