package notifier

import (
	"context"
	"encoding/json"
	"time"

	"gensavor/internal/domain"
	"gensavor/pkg/logger"
	"gensavor/pkg/rabbitmq"
)

const (
	EventOrderCreated  = "order_created"
	EventStatusChanged = "status_changed"
)

// Event is the change notification published to the orders fanout
// exchange. It carries identifiers, not order bodies; observers
// re-query the store for a consistent snapshot.
type Event struct {
	Kind       string        `json:"kind"`
	OrderID    string        `json:"order_id"`
	PublicID   string        `json:"public_id"`
	OldStatus  domain.Status `json:"old_status,omitempty"`
	NewStatus  domain.Status `json:"new_status"`
	ChangedBy  string        `json:"changed_by,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher pushes change events to RabbitMQ so observers in other
// processes learn about writes without polling.
type Publisher struct {
	rmq *rabbitmq.RabbitMQ
	log *logger.Logger
}

func NewPublisher(rmq *rabbitmq.RabbitMQ, log *logger.Logger) *Publisher {
	return &Publisher{rmq: rmq, log: log}
}

func (p *Publisher) OrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, Event{
		Kind:       EventOrderCreated,
		OrderID:    order.ID,
		PublicID:   order.PublicID,
		NewStatus:  order.Status,
		OccurredAt: order.CreatedAt,
	})
}

func (p *Publisher) StatusChanged(ctx context.Context, order *domain.Order, old domain.Status, changedBy string) error {
	return p.publish(ctx, Event{
		Kind:       EventStatusChanged,
		OrderID:    order.ID,
		PublicID:   order.PublicID,
		OldStatus:  old,
		NewStatus:  order.Status,
		ChangedBy:  changedBy,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.rmq.Publish(ctx, body); err != nil {
		return err
	}
	p.log.Action("event_published").With("kind", event.Kind).With("order_id", event.OrderID).Debug("Change event published")
	return nil
}
