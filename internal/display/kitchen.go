package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
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

// Kitchen renders the live kitchen queue to a terminal. A new pending
// ticket rings the terminal bell so the line cook looks up.
type Kitchen struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func NewKitchen(cfg *config.Config, log *logger.Logger) *Kitchen {
	return &Kitchen{cfg: cfg, log: log, out: os.Stdout}
}

func (k *Kitchen) Run(ctx context.Context) error {
	pool, err := db.Connect(ctx, &k.cfg.Database, k.log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(&k.cfg.RabbitMQ, k.log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rmq.Close()

	orderStore := store.New(pool, k.log)
	hub := notifier.NewHub(orderStore, k.log)
	listener := notifier.NewListener(rmq, hub, k.log)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			k.log.Action("listener_stopped").Error("Change event listener stopped", err)
		}
	}()

	updates, cancel := hub.WatchAll(ctx)
	defer cancel()

	prevPending := map[string]bool{}
	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			if snap.Err != nil {
				fmt.Fprintln(k.out, "! live updates interrupted, reconnecting...")
				continue
			}
			queue := projection.KitchenQueue(snap.Orders)
			fresh := projection.NewPending(prevPending, queue)
			if !first && len(fresh) > 0 {
				// Terminal bell stands in for the kitchen alert sound.
				fmt.Fprint(k.out, "\a")
			}
			prevPending = projection.PendingIDs(queue)
			first = false
			k.render(queue)
		}
	}
}

func (k *Kitchen) render(queue []domain.Order) {
	fmt.Fprintf(k.out, "\n=== KITCHEN QUEUE (%d) %s ===\n", len(queue), time.Now().Format("15:04:05"))
	if len(queue) == 0 {
		fmt.Fprintln(k.out, "  all caught up")
		return
	}
	for _, order := range queue {
		fmt.Fprintf(k.out, "  [%-9s] %s  %s  waiting %s\n",
			order.Status, order.PublicID, lineSummary(order.Items),
			time.Since(order.CreatedAt).Round(time.Minute))
		if order.Notes != "" {
			fmt.Fprintf(k.out, "              note: %s\n", order.Notes)
		}
	}
}

func lineSummary(items []domain.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}
	return strings.Join(parts, ", ")
}
