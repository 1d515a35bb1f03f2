package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensavor/internal/domain"
	"gensavor/internal/notifier"
	"gensavor/pkg/logger"
)

// fakeStore keeps one order per id and applies transitions under a
// lock, validating against the stored status exactly like the
// conditional update in the real store. Like the real store it keeps
// an append-only status log per order: one entry at creation, one per
// applied transition, nothing for rejections.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	logs   map[string][]domain.StatusLogEntry
}

func newFakeStore(orders ...*domain.Order) *fakeStore {
	s := &fakeStore{
		orders: make(map[string]*domain.Order),
		logs:   make(map[string][]domain.StatusLogEntry),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
		s.logs[o.ID] = []domain.StatusLogEntry{
			{Status: o.Status, ChangedBy: "checkout", ChangedAt: time.Now()},
		}
	}
	return s
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id string, next domain.Status, changedBy string) (*domain.Order, domain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	old := order.Status
	if err := domain.ValidateTransition(old, next); err != nil {
		return nil, "", err
	}
	order.Status = next
	order.UpdatedAt = time.Now()
	s.logs[id] = append(s.logs[id], domain.StatusLogEntry{
		Status: next, ChangedBy: changedBy, ChangedAt: order.UpdatedAt,
	})
	copied := *order
	return &copied, old, nil
}

func (s *fakeStore) statusLog(id string) []domain.StatusLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.StatusLogEntry, len(s.logs[id]))
	copy(out, s.logs[id])
	return out
}

func (s *fakeStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) GetByPublicID(ctx context.Context, code string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = domain.NormalizePublicID(code)
	for _, o := range s.orders {
		if o.PublicID == code {
			copied := *o
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

type publishedEvent struct {
	orderID string
	old     domain.Status
	next    domain.Status
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) StatusChanged(ctx context.Context, order *domain.Order, old domain.Status, changedBy string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{orderID: order.ID, old: old, next: order.Status})
	return nil
}

func (p *fakePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func newTestEngine(store *fakeStore, pub *fakePublisher) *Engine {
	log := logger.New("engine-test")
	hub := notifier.NewHub(store, log)
	return NewEngine(store, pub, hub, log)
}

func TestTransitionFullLifecycle(t *testing.T) {
	store := newFakeStore(&domain.Order{ID: "ord-1", Status: domain.StatusPending})
	pub := &fakePublisher{}
	engine := newTestEngine(store, pub)
	ctx := context.Background()

	for _, next := range []domain.Status{
		domain.StatusPreparing, domain.StatusReady, domain.StatusCompleted,
	} {
		order, err := engine.Transition(ctx, "ord-1", next, "chef_aziz")
		require.NoError(t, err)
		assert.Equal(t, next, order.Status)
	}

	events := pub.published()
	require.Len(t, events, 3)
	assert.Equal(t, domain.StatusPending, events[0].old)
	assert.Equal(t, domain.StatusCompleted, events[2].next)

	// Every applied write appends to the status log, oldest first.
	history := store.statusLog("ord-1")
	require.Len(t, history, 4)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, "checkout", history[0].ChangedBy)
	assert.Equal(t, domain.StatusPreparing, history[1].Status)
	assert.Equal(t, domain.StatusReady, history[2].Status)
	assert.Equal(t, domain.StatusCompleted, history[3].Status)
	assert.Equal(t, "chef_aziz", history[3].ChangedBy)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	store := newFakeStore(&domain.Order{ID: "ord-1", Status: domain.StatusPending})
	pub := &fakePublisher{}
	engine := newTestEngine(store, pub)

	_, err := engine.Transition(context.Background(), "ord-1", domain.StatusCompleted, "chef_aziz")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusPending, invalid.From)
	assert.Equal(t, domain.StatusCompleted, invalid.To)

	// Nothing written, nothing published, nothing logged.
	stored, err := store.GetByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, pub.published())
	assert.Len(t, store.statusLog("ord-1"), 1)
}

func TestTransitionUnknownOrder(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	engine := newTestEngine(store, pub)

	_, err := engine.Transition(context.Background(), "ghost", domain.StatusPreparing, "chef_aziz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, pub.published())
}

func TestTransitionRaceHasOneWinner(t *testing.T) {
	store := newFakeStore(&domain.Order{ID: "ord-1", Status: domain.StatusPreparing})
	pub := &fakePublisher{}
	engine := newTestEngine(store, pub)
	ctx := context.Background()

	// Two staff clients race to cancel the same order. Exactly one
	// wins; the loser gets a rejection against the winner's status.
	const racers = 2
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transition(ctx, "ord-1", domain.StatusCancelled, "staff")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		losses++
		var invalid *domain.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, domain.StatusCancelled, invalid.From)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Len(t, pub.published(), 1)
}

func TestTransitionSurvivesPublishFailure(t *testing.T) {
	store := newFakeStore(&domain.Order{ID: "ord-1", Status: domain.StatusPending})
	pub := &fakePublisher{err: notifier.ErrDisconnected}
	engine := newTestEngine(store, pub)

	// The write is durable before the event goes out, so a broken
	// broker must not fail the transition.
	order, err := engine.Transition(context.Background(), "ord-1", domain.StatusPreparing, "chef_aziz")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, order.Status)
}
