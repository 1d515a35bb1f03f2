package notifier

import (
	"context"
	"errors"

	"gensavor/pkg/logger"
	"gensavor/pkg/rabbitmq"
)

// ErrDisconnected is surfaced to observers while the live-update
// channel is down. It is recoverable; a resync follows reconnection.
var ErrDisconnected = errors.New("live update channel disconnected")

// Listener bridges the orders fanout exchange into a local hub. Each
// consumed event pings the hub; subscribers then pull a fresh
// snapshot from the store, so a lost or duplicated event can at worst
// delay a refresh, never corrupt one.
type Listener struct {
	rmq *rabbitmq.RabbitMQ
	hub *Hub
	log *logger.Logger
}

func NewListener(rmq *rabbitmq.RabbitMQ, hub *Hub, log *logger.Logger) *Listener {
	return &Listener{rmq: rmq, hub: hub, log: log}
}

// Run consumes change events until the context is cancelled. When the
// broker connection drops, observers get a transient error event and
// the listener reconnects; the first broadcast after reconnection is
// a full resync, so no observer is left holding state from before the
// gap.
func (l *Listener) Run(ctx context.Context) error {
	for {
		deliveries, err := l.rmq.Subscribe(ctx)
		if err != nil {
			l.log.Action("subscribe_failed").Error("Failed to subscribe to change events", err)
			l.hub.Fail(err)
			if err := l.rmq.Reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		// Resync on every (re)connect.
		l.hub.Broadcast()

	consume:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-deliveries:
				if !ok {
					l.log.Action("channel_lost").Warn("Change event channel closed, reconnecting")
					l.hub.Fail(ErrDisconnected)
					if err := l.rmq.Reconnect(ctx); err != nil {
						return err
					}
					break consume
				}
				l.hub.Broadcast()
			}
		}
	}
}
