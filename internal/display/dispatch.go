package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gensavor/internal/domain"
	"gensavor/internal/notifier"
	"gensavor/internal/projection"
	"gensavor/internal/store"
	"gensavor/pkg/config"
	"gensavor/pkg/db"
	"gensavor/pkg/logger"
	"gensavor/pkg/rabbitmq"
)

// Dispatch renders ready orders grouped for the hand-off counter.
type Dispatch struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func NewDispatch(cfg *config.Config, log *logger.Logger) *Dispatch {
	return &Dispatch{cfg: cfg, log: log, out: os.Stdout}
}

func (d *Dispatch) Run(ctx context.Context) error {
	pool, err := db.Connect(ctx, &d.cfg.Database, d.log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(&d.cfg.RabbitMQ, d.log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rmq.Close()

	orderStore := store.New(pool, d.log)
	hub := notifier.NewHub(orderStore, d.log)
	listener := notifier.NewListener(rmq, hub, d.log)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Action("listener_stopped").Error("Change event listener stopped", err)
		}
	}()

	updates, cancel := hub.WatchAll(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			if snap.Err != nil {
				fmt.Fprintln(d.out, "! live updates interrupted, reconnecting...")
				continue
			}
			d.render(projection.DispatchQueue(snap.Orders))
		}
	}
}

func (d *Dispatch) render(view projection.DispatchView) {
	fmt.Fprintf(d.out, "\n=== READY FOR HAND-OFF %s ===\n", time.Now().Format("15:04:05"))
	d.renderGroup("PICKUP", view.Pickup)
	d.renderGroup("DELIVERY", view.Delivery)
	if len(view.Pickup) == 0 && len(view.Delivery) == 0 {
		fmt.Fprintln(d.out, "  nothing waiting")
	}
}

func (d *Dispatch) renderGroup(label string, orders []domain.Order) {
	if len(orders) == 0 {
		return
	}
	fmt.Fprintf(d.out, "  %s:\n", label)
	for _, order := range orders {
		fmt.Fprintf(d.out, "    %s  %s  $%.2f", order.PublicID, order.CustomerName, order.Total)
		if order.Type == domain.TypeDelivery {
			fmt.Fprintf(d.out, "  -> %s", order.Address)
		}
		fmt.Fprintln(d.out)
	}
}
