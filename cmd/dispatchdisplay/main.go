package dispatchdisplay

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

	log := logger.New("dispatch-display").Pretty()
	log.Action("service_started").Info("Dispatch display starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatch := display.NewDispatch(cfg, log)
	if err := dispatch.Run(ctx); err != nil {
		log.Fatal("Dispatch display failed", err)
	}
	log.Action("service_stopped").Info("Dispatch display exiting")
}
