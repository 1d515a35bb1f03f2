package trackingservice

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	trackingsvc "gensavor/internal/trackingservice"
	"gensavor/pkg/config"
	"gensavor/pkg/logger"
)

func Main() {
	port := flag.Int("port", 3002, "HTTP listen port")
	flag.Parse()

	log := logger.New("tracking-service")
	log.Action("service_started").Info("Tracking service starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := trackingsvc.NewServer(cfg, trackingsvc.Params{Port: *port}, log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("Tracking service failed", err)
	}
	log.Action("service_stopped").Info("Tracking service exiting")
}
