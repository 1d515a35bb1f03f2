package notifier

import (
	"context"
	"errors"
	"sync"

	"gensavor/internal/domain"
	"gensavor/internal/metrics"
	"gensavor/pkg/logger"
)

// Source is the order collection the hub re-queries on every change.
// The store satisfies it; tests use an in-memory fake.
type Source interface {
	ListAll(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPublicID(ctx context.Context, code string) (*domain.Order, error)
}

// Snapshot is one delivery on a WatchAll stream: either a fresh full
// listing or a transient source error. An error does not end the
// stream; the next successful broadcast is a full resync.
type Snapshot struct {
	Orders []domain.Order
	Err    error
}

// OrderUpdate is one delivery on a WatchOne stream. A nil Order with
// a nil Err means the key matches nothing right now — absence is a
// valid state, not a failure, and the stream stays open.
type OrderUpdate struct {
	Order *domain.Order
	Err   error
}

// Hub fans order collection changes out to any number of observers
// without polling on their side. Writers call Broadcast after every
// successful create or transition; each subscriber then re-queries
// the source and receives a state at least as new as its previous
// delivery. Slow observers are conflated to the latest state rather
// than queued behind stale ones.
type Hub struct {
	source Source
	log    *logger.Logger

	mu      sync.Mutex
	nextID  int
	allSubs map[int]*allSub
	oneSubs map[int]*oneSub
}

type allSub struct {
	out  chan Snapshot
	kick chan struct{}
	done chan struct{}
}

type oneSub struct {
	key  string
	out  chan OrderUpdate
	kick chan struct{}
	done chan struct{}

	mu    sync.Mutex
	stale bool
}

// markStale forces the next successful refresh to re-deliver even if
// the record did not change. Set whenever an error event was pushed
// onto the stream; the observer may be showing that error.
func (s *oneSub) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *oneSub) takeStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := s.stale
	s.stale = false
	return stale
}

func NewHub(source Source, log *logger.Logger) *Hub {
	return &Hub{
		source:  source,
		log:     log,
		allSubs: make(map[int]*allSub),
		oneSubs: make(map[int]*oneSub),
	}
}

// Broadcast pings every subscriber to refresh from the source. It is
// cheap to call and never blocks on slow observers.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.allSubs {
		ping(sub.kick)
	}
	for _, sub := range h.oneSubs {
		ping(sub.kick)
	}
}

// Fail surfaces a transient connectivity error to every subscriber.
// Streams stay open; observers are expected to keep listening for the
// resync that follows reconnection.
func (h *Hub) Fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.allSubs {
		sendSnapshot(sub.out, Snapshot{Err: err})
	}
	for _, sub := range h.oneSubs {
		sub.markStale()
		sendUpdate(sub.out, OrderUpdate{Err: err})
	}
}

// WatchAll subscribes to the full ordered listing. The current state
// is delivered immediately, then again on every collection change.
// The returned cancel func is idempotent.
func (h *Hub) WatchAll(ctx context.Context) (<-chan Snapshot, func()) {
	sub := &allSub{
		out:  make(chan Snapshot, 1),
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.allSubs[id] = sub
	h.mu.Unlock()
	metrics.WatchSubscribers.Inc()

	cancel := h.cancelFunc(func() {
		h.mu.Lock()
		delete(h.allSubs, id)
		h.mu.Unlock()
		close(sub.done)
	})

	go func() {
		h.deliverAll(ctx, sub)
		for {
			select {
			case <-sub.kick:
				h.deliverAll(ctx, sub)
			case <-sub.done:
				return
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()

	return sub.out, cancel
}

// WatchOne subscribes to a single order resolved by internal id or
// public code. Deliveries happen on subscribe and whenever the record
// changes, including the change from absent to present.
func (h *Hub) WatchOne(ctx context.Context, key string) (<-chan OrderUpdate, func()) {
	sub := &oneSub{
		key:  key,
		out:  make(chan OrderUpdate, 1),
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.oneSubs[id] = sub
	h.mu.Unlock()
	metrics.WatchSubscribers.Inc()

	cancel := h.cancelFunc(func() {
		h.mu.Lock()
		delete(h.oneSubs, id)
		h.mu.Unlock()
		close(sub.done)
	})

	go func() {
		last, delivered := h.deliverOne(ctx, sub, nil, false)
		for {
			select {
			case <-sub.kick:
				last, delivered = h.deliverOne(ctx, sub, last, delivered)
			case <-sub.done:
				return
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()

	return sub.out, cancel
}

func (h *Hub) cancelFunc(f func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			f()
			metrics.WatchSubscribers.Dec()
		})
	}
}

func (h *Hub) deliverAll(ctx context.Context, sub *allSub) {
	orders, err := h.source.ListAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.log.Action("watch_refresh_failed").Error("Failed to refresh order listing", err)
		sendSnapshot(sub.out, Snapshot{Err: err})
		return
	}
	sendSnapshot(sub.out, Snapshot{Orders: orders})
}

// deliverOne re-resolves the key and delivers only when the record
// actually changed since the previous delivery, so collection-wide
// broadcasts do not spam single-order observers. The dedup is dropped
// after any error event: the observer saw the error, so the first
// successful refresh after the gap must re-deliver even an unchanged
// record.
func (h *Hub) deliverOne(ctx context.Context, sub *oneSub, last *domain.Order, delivered bool) (*domain.Order, bool) {
	order, err := LookupByKey(ctx, h.source, sub.key)
	if err != nil {
		if ctx.Err() != nil {
			return last, delivered
		}
		h.log.Action("watch_refresh_failed").Error("Failed to refresh order", err)
		sendUpdate(sub.out, OrderUpdate{Err: err})
		return last, false
	}

	stale := sub.takeStale()
	if delivered && !stale && !orderChanged(last, order) {
		return last, delivered
	}
	sendUpdate(sub.out, OrderUpdate{Order: order})
	return order, true
}

// LookupByKey resolves a key that may be either an internal id or a
// public code. Codes are at most 8 characters, so anything longer is
// treated as an internal id. Absence comes back as (nil, nil).
func LookupByKey(ctx context.Context, source Source, key string) (*domain.Order, error) {
	var (
		order *domain.Order
		err   error
	)
	if len(key) <= domain.PublicIDLength {
		order, err = source.GetByPublicID(ctx, key)
	} else {
		order, err = source.GetByID(ctx, key)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func orderChanged(prev, next *domain.Order) bool {
	if (prev == nil) != (next == nil) {
		return true
	}
	if prev == nil {
		return false
	}
	return prev.Status != next.Status || !prev.UpdatedAt.Equal(next.UpdatedAt)
}

// ping requests a refresh without blocking; a pending request already
// covers this change.
func ping(kick chan struct{}) {
	select {
	case kick <- struct{}{}:
	default:
	}
}

// sendSnapshot delivers with conflation: if the observer has not
// consumed the previous delivery, it is replaced by the newer one.
func sendSnapshot(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func sendUpdate(out chan OrderUpdate, u OrderUpdate) {
	for {
		select {
		case out <- u:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
