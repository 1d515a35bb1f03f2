package tracker

import (
	"context"

	"gensavor/internal/domain"
	"gensavor/internal/notifier"
)

// Store is the lookup surface the tracker needs.
type Store interface {
	notifier.Source
	GetByPhone(ctx context.Context, phone string) ([]domain.Order, error)
}

// Tracker lets unauthenticated customers follow their order by
// internal id or public code, or find their orders by phone number.
// It exposes reads only; the single customer-initiated write
// (checkout) goes through the order service.
type Tracker struct {
	store Store
	hub   *notifier.Hub
}

func New(store Store, hub *notifier.Hub) *Tracker {
	return &Tracker{store: store, hub: hub}
}

// Resolve looks the key up once. Keys of 8 characters or fewer are
// treated as public codes (case-insensitive), longer keys as internal
// ids. A sufficiently short internal id would be misread as a code;
// uuid ids are 36 characters, so in practice the two spaces do not
// overlap. Returns domain.ErrNotFound when nothing matches.
func (t *Tracker) Resolve(ctx context.Context, key string) (*domain.Order, error) {
	order, err := notifier.LookupByKey(ctx, t.store, key)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// Subscribe opens a live single-order view. Absence is delivered as a
// nil-order update, not an error, and the stream stays open in case
// the order appears later.
func (t *Tracker) Subscribe(ctx context.Context, key string) (<-chan notifier.OrderUpdate, func()) {
	return t.hub.WatchOne(ctx, key)
}

// FindByPhone is the fallback when the customer lost their code.
// Exact string match, newest first; an empty result is a normal
// answer, not an error.
func (t *Tracker) FindByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	orders, err := t.store.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
