package lifecycle

import (
	"context"
	"errors"

	"gensavor/internal/domain"
	"gensavor/internal/metrics"
	"gensavor/internal/notifier"
	"gensavor/pkg/logger"
)

// TransitionStore is the slice of the order store the engine needs.
type TransitionStore interface {
	UpdateStatus(ctx context.Context, id string, next domain.Status, changedBy string) (*domain.Order, domain.Status, error)
}

// EventPublisher pushes change events to observers in other
// processes. The local hub is notified directly.
type EventPublisher interface {
	StatusChanged(ctx context.Context, order *domain.Order, old domain.Status, changedBy string) error
}

// Engine drives the order status state machine. It is the only
// component that writes status: staff UIs call Transition and nothing
// else touches the field. Validation happens against the stored
// status under a conditional update, so two racing staff clients
// cannot both win.
type Engine struct {
	store     TransitionStore
	publisher EventPublisher
	hub       *notifier.Hub
	log       *logger.Logger
}

func NewEngine(store TransitionStore, publisher EventPublisher, hub *notifier.Hub, log *logger.Logger) *Engine {
	return &Engine{store: store, publisher: publisher, hub: hub, log: log}
}

// Transition advances one order to next. Illegal transitions fail
// with *domain.InvalidTransitionError and write nothing; the operator
// sees the message and the order is untouched. Nothing is retried
// here — a rejected transition is an operator decision, not a
// transient fault.
func (e *Engine) Transition(ctx context.Context, id string, next domain.Status, changedBy string) (*domain.Order, error) {
	order, old, err := e.store.UpdateStatus(ctx, id, next, changedBy)
	if err != nil {
		var invalid *domain.InvalidTransitionError
		if errors.As(err, &invalid) {
			metrics.InvalidTransitions.Inc()
			e.log.Action("transition_rejected").With("order_id", id).Warn(invalid.Error())
		}
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(next)).Inc()
	e.log.Action("status_changed").
		With("order_id", order.ID).
		With("from", string(old)).
		With("to", string(next)).
		With("changed_by", changedBy).
		Info("Order status advanced")

	// Local observers first, then the fanout. The write is already
	// durable; a publish failure only delays remote displays until
	// their next resync.
	e.hub.Broadcast()
	if err := e.publisher.StatusChanged(ctx, order, old, changedBy); err != nil {
		e.log.Action("event_publish_failed").Error("Failed to publish status change event", err)
	}
	return order, nil
}
