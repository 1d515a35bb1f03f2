package kitchendisplay

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"gensavor/internal/display"
	"gensavor/pkg/config"
	"gensavor/pkg/logger"
)

func Main() {
	flag.Parse()

	log := logger.New("kitchen-display").Pretty()
	log.Action("service_started").Info("Kitchen display starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kitchen := display.NewKitchen(cfg, log)
	if err := kitchen.Run(ctx); err != nil {
		log.Fatal("Kitchen display failed", err)
	}
	log.Action("service_stopped").Info("Kitchen display exiting")
}
