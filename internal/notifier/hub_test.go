package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensavor/internal/domain"
	"gensavor/pkg/logger"
)

// fakeSource is an in-memory order collection safe for concurrent use.
type fakeSource struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (f *fakeSource) set(orders ...domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
	f.err = nil
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) ListAll(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeSource) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.ID == id {
			copied := o
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) GetByPublicID(ctx context.Context, code string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	code = domain.NormalizePublicID(code)
	for _, o := range f.orders {
		if o.PublicID == code {
			copied := o
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func testHub(source Source) *Hub {
	return NewHub(source, logger.New("hub-test"))
}

func recvSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func recvUpdate(t *testing.T, ch <-chan OrderUpdate) OrderUpdate {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return OrderUpdate{}
	}
}

func requireQuiet(t *testing.T, ch <-chan OrderUpdate) {
	t.Helper()
	select {
	case u := <-ch:
		t.Fatalf("unexpected delivery: %+v", u)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchAllInitialSnapshot(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "a", Status: domain.StatusPending})

	hub := testHub(source)
	ch, cancel := hub.WatchAll(context.Background())
	defer cancel()

	snap := recvSnapshot(t, ch)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "a", snap.Orders[0].ID)
}

func TestWatchAllBroadcastRefreshes(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "a", Status: domain.StatusPending})

	hub := testHub(source)
	ch, cancel := hub.WatchAll(context.Background())
	defer cancel()

	recvSnapshot(t, ch)

	source.set(
		domain.Order{ID: "a", Status: domain.StatusPreparing},
		domain.Order{ID: "b", Status: domain.StatusPending},
	)
	hub.Broadcast()

	snap := recvSnapshot(t, ch)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, domain.StatusPreparing, snap.Orders[0].Status)
}

func TestWatchAllErrorThenResync(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "a", Status: domain.StatusPending})

	hub := testHub(source)
	ch, cancel := hub.WatchAll(context.Background())
	defer cancel()

	recvSnapshot(t, ch)

	source.fail(domain.ErrUnavailable)
	hub.Broadcast()
	snap := recvSnapshot(t, ch)
	require.ErrorIs(t, snap.Err, domain.ErrUnavailable)

	// Stream survives the error and the next broadcast is a resync.
	source.set(domain.Order{ID: "a", Status: domain.StatusReady})
	hub.Broadcast()
	snap = recvSnapshot(t, ch)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, domain.StatusReady, snap.Orders[0].Status)
}

func TestWatchAllConflation(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "a", Status: domain.StatusPending})

	hub := testHub(source)
	ch, cancel := hub.WatchAll(context.Background())
	defer cancel()

	recvSnapshot(t, ch)

	// Two rapid changes while the observer is not reading: only the
	// newest state must come out.
	source.set(domain.Order{ID: "a", Status: domain.StatusPreparing})
	hub.Broadcast()
	time.Sleep(100 * time.Millisecond)
	source.set(domain.Order{ID: "a", Status: domain.StatusReady})
	hub.Broadcast()
	time.Sleep(100 * time.Millisecond)

	snap := recvSnapshot(t, ch)
	require.NoError(t, snap.Err)
	assert.Equal(t, domain.StatusReady, snap.Orders[0].Status)
}

func TestWatchOneAbsentThenPresent(t *testing.T) {
	source := &fakeSource{}
	hub := testHub(source)

	ch, cancel := hub.WatchOne(context.Background(), "A7K2M9QX")
	defer cancel()

	up := recvUpdate(t, ch)
	require.NoError(t, up.Err)
	assert.Nil(t, up.Order)

	source.set(domain.Order{ID: "id-1", PublicID: "A7K2M9QX", Status: domain.StatusPending})
	hub.Broadcast()

	up = recvUpdate(t, ch)
	require.NoError(t, up.Err)
	require.NotNil(t, up.Order)
	assert.Equal(t, "A7K2M9QX", up.Order.PublicID)
}

func TestWatchOneDedupsUnrelatedChanges(t *testing.T) {
	source := &fakeSource{}
	mine := domain.Order{ID: "id-1", PublicID: "A7K2M9QX", Status: domain.StatusPending}
	source.set(mine)

	hub := testHub(source)
	ch, cancel := hub.WatchOne(context.Background(), "a7k2m9qx")
	defer cancel()

	recvUpdate(t, ch)

	// A change to some other order broadcasts, but this stream stays
	// quiet because its record did not move.
	source.set(mine, domain.Order{ID: "id-2", PublicID: "BCDFGHJK", Status: domain.StatusPending})
	hub.Broadcast()
	requireQuiet(t, ch)

	mine.Status = domain.StatusPreparing
	source.set(mine)
	hub.Broadcast()

	up := recvUpdate(t, ch)
	require.NotNil(t, up.Order)
	assert.Equal(t, domain.StatusPreparing, up.Order.Status)
}

func TestWatchOneResyncAfterSourceError(t *testing.T) {
	source := &fakeSource{}
	mine := domain.Order{ID: "id-1", PublicID: "A7K2M9QX", Status: domain.StatusPending}
	source.set(mine)

	hub := testHub(source)
	ch, cancel := hub.WatchOne(context.Background(), "A7K2M9QX")
	defer cancel()

	recvUpdate(t, ch)

	source.fail(domain.ErrUnavailable)
	hub.Broadcast()
	up := recvUpdate(t, ch)
	require.ErrorIs(t, up.Err, domain.ErrUnavailable)

	// The record did not change across the gap, but the observer is
	// sitting on the error state, so recovery must re-deliver it.
	source.set(mine)
	hub.Broadcast()
	up = recvUpdate(t, ch)
	require.NoError(t, up.Err)
	require.NotNil(t, up.Order)
	assert.Equal(t, domain.StatusPending, up.Order.Status)
}

func TestWatchOneResyncAfterFail(t *testing.T) {
	source := &fakeSource{}
	mine := domain.Order{ID: "id-1", PublicID: "A7K2M9QX", Status: domain.StatusPending}
	source.set(mine)

	hub := testHub(source)
	ch, cancel := hub.WatchOne(context.Background(), "A7K2M9QX")
	defer cancel()

	recvUpdate(t, ch)

	// Broker loss is delivered out of band by Fail; the reconnect
	// broadcast must still reach this stream even though the record
	// is unchanged.
	hub.Fail(ErrDisconnected)
	up := recvUpdate(t, ch)
	require.ErrorIs(t, up.Err, ErrDisconnected)

	hub.Broadcast()
	up = recvUpdate(t, ch)
	require.NoError(t, up.Err)
	require.NotNil(t, up.Order)
	assert.Equal(t, domain.StatusPending, up.Order.Status)
}

func TestWatchOneByInternalID(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "6f1d2c3b-aaaa-bbbb-cccc-111122223333", Status: domain.StatusPending})

	hub := testHub(source)
	ch, cancel := hub.WatchOne(context.Background(), "6f1d2c3b-aaaa-bbbb-cccc-111122223333")
	defer cancel()

	up := recvUpdate(t, ch)
	require.NotNil(t, up.Order)
	assert.Equal(t, domain.StatusPending, up.Order.Status)
}

func TestFailReachesAllStreams(t *testing.T) {
	source := &fakeSource{}
	source.set(domain.Order{ID: "a", PublicID: "A7K2M9QX", Status: domain.StatusPending})

	hub := testHub(source)
	all, cancelAll := hub.WatchAll(context.Background())
	defer cancelAll()
	one, cancelOne := hub.WatchOne(context.Background(), "A7K2M9QX")
	defer cancelOne()

	recvSnapshot(t, all)
	recvUpdate(t, one)

	hub.Fail(ErrDisconnected)

	assert.ErrorIs(t, recvSnapshot(t, all).Err, ErrDisconnected)
	assert.ErrorIs(t, recvUpdate(t, one).Err, ErrDisconnected)
}

func TestCancelIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	hub := testHub(source)

	_, cancel := hub.WatchAll(context.Background())
	cancel()
	cancel()

	_, cancelOne := hub.WatchOne(context.Background(), "A7K2M9QX")
	cancelOne()
	cancelOne()

	// Broadcasting into an empty hub must not panic or block.
	hub.Broadcast()
	hub.Fail(ErrDisconnected)
}

func TestLookupByKeyHeuristic(t *testing.T) {
	source := &fakeSource{}
	source.set(
		domain.Order{ID: "6f1d2c3b-aaaa-bbbb-cccc-111122223333", PublicID: "A7K2M9QX"},
	)

	ctx := context.Background()

	order, err := LookupByKey(ctx, source, "A7K2M9QX")
	require.NoError(t, err)
	require.NotNil(t, order)

	order, err = LookupByKey(ctx, source, "6f1d2c3b-aaaa-bbbb-cccc-111122223333")
	require.NoError(t, err)
	require.NotNil(t, order)

	// Absence is (nil, nil), not an error.
	order, err = LookupByKey(ctx, source, "ZZZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, order)
}
