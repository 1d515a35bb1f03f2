package orderservice

import (
	"context"
	"errors"
	"fmt"

	"gensavor/internal/domain"
	"gensavor/internal/menu"
	"gensavor/internal/metrics"
	"gensavor/internal/notifier"
	"gensavor/internal/store"
	"gensavor/pkg/logger"
)

// ErrInvalidOrder rejects a malformed checkout draft before anything
// is written.
var ErrInvalidOrder = errors.New("invalid order")

// CheckoutItem references a catalog item by id; name and price are
// snapshotted server-side so a client cannot invent prices and later
// menu edits cannot alter the order.
type CheckoutItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerName string           `json:"customer_name"`
	Phone        string           `json:"phone"`
	Email        string           `json:"email"`
	Type         domain.OrderType `json:"type"`
	Address      string           `json:"address,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Items        []CheckoutItem   `json:"items"`
}

// Service owns the checkout flow: snapshot menu data into line items,
// validate, compute totals, persist, notify.
type Service struct {
	store     *store.Store
	catalog   *menu.Catalog
	hub       *notifier.Hub
	publisher *notifier.Publisher
	log       *logger.Logger
}

func NewService(st *store.Store, catalog *menu.Catalog, hub *notifier.Hub, publisher *notifier.Publisher, log *logger.Logger) *Service {
	return &Service{store: st, catalog: catalog, hub: hub, publisher: publisher, log: log}
}

// Checkout creates an order from a customer request. The change is
// visible to the notifier before this returns, so no observer can
// read around the new order.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	draft := domain.Draft{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Type:         req.Type,
		Address:      req.Address,
		Notes:        req.Notes,
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrInvalidOrder)
	}
	for _, line := range req.Items {
		item, err := s.catalog.GetByID(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, menu.ErrUnknownItem) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
			}
			return nil, err
		}
		draft.Items = append(draft.Items, domain.LineItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   line.Quantity,
		})
	}

	draft.ComputeTotals()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	order, err := s.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	s.log.Action("order_created").
		With("order_id", order.ID).
		With("public_id", order.PublicID).
		Info("Order accepted")

	s.hub.Broadcast()
	if err := s.publisher.OrderCreated(ctx, order); err != nil {
		s.log.Action("event_publish_failed").Error("Failed to publish order created event", err)
	}
	return order, nil
}
