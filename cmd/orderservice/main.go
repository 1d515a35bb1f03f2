package orderservice

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	ordersvc "gensavor/internal/orderservice"
	"gensavor/pkg/config"
	"gensavor/pkg/logger"
)

func Main() {
	port := flag.Int("port", 3000, "HTTP listen port")
	flag.Parse()

	log := logger.New("order-service")
	log.Action("service_started").Info("Order service starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := ordersvc.NewServer(cfg, ordersvc.Params{Port: *port}, log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("Order service failed", err)
	}
	log.Action("service_stopped").Info("Order service exiting")
}
