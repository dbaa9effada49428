package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
)

type shopHarness struct {
	shop *Shop
	rec  *Recorder
	obs  *invariantObserver
	ctx  context.Context
}

func newShopHarness(t *testing.T, seats, clients int) *shopHarness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	h := &shopHarness{rec: NewRecorder(), obs: &invariantObserver{}, ctx: ctx}
	h.shop = NewShop(seats, clients, h.rec, NewStamper(clock.RealClock{}), h.obs.observe)
	stop := h.shop.CloseOn(ctx)
	t.Cleanup(func() { stop() })
	t.Cleanup(func() { assert.Empty(t, h.obs.Violations()) })
	return h
}

// arrive starts the admission protocol for client id and waits until the
// client has either been seated or queued.
func (h *shopHarness) arrive(t *testing.T, id int) (*Client, <-chan error) {
	t.Helper()
	c := NewClient(id)
	errc := make(chan error, 1)
	go func() { errc <- h.shop.Admit(h.ctx, c) }()
	require.Eventually(t, func() bool {
		ev := h.rec.Events()
		return indexOf(ev, EventSeated, id) >= 0 || indexOf(ev, EventQueued, id) >= 0
	}, waitTimeout, time.Millisecond, "client %d never arrived", id)
	return c, errc
}

func (h *shopHarness) serve(t *testing.T, serverID, wantClient int) *Client {
	t.Helper()
	c, err := h.shop.Claim(h.ctx, serverID)
	require.NoError(t, err)
	require.Equal(t, wantClient, c.ID)
	assert.Equal(t, ClientInService, c.State)
	assert.Equal(t, serverID, c.ServedBy)
	h.shop.Finish(serverID, c)
	return c
}

func awaitAdmit(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Admit did not return after service finished")
	}
}

func TestShop_Admit_SeatsWhenFree(t *testing.T) {
	// GIVEN a shop with two seats
	h := newShopHarness(t, 2, 2)

	// WHEN two clients arrive
	c1, done1 := h.arrive(t, 1)
	c2, done2 := h.arrive(t, 2)

	// THEN both are seated without queueing
	ev := h.rec.Events()
	assert.Empty(t, clientsOf(ev, EventQueued))
	assert.Equal(t, []int{1, 2}, clientsOf(ev, EventSeated))
	snap := h.shop.Snapshot()
	assert.Equal(t, 2, snap.Occupied)
	assert.Equal(t, 0, snap.Free)
	assert.Equal(t, []int{1, 2}, snap.Seated)

	// AND each client returns only after its own service
	h.serve(t, 1, 1)
	awaitAdmit(t, done1)
	assert.Equal(t, ClientDone, c1.State)
	select {
	case <-done2:
		t.Fatal("client 2 returned before being served")
	default:
	}
	h.serve(t, 1, 2)
	awaitAdmit(t, done2)
	assert.Equal(t, ClientDone, c2.State)

	assert.Equal(t, 2, h.shop.Completed().Value())
}

func TestShop_Admit_QueuedClientsPromotedInArrivalOrder(t *testing.T) {
	// GIVEN a single seat held by client 1
	h := newShopHarness(t, 1, 4)
	_, done1 := h.arrive(t, 1)

	// WHEN clients 2, 3, 4 arrive in that order
	_, done2 := h.arrive(t, 2)
	_, done3 := h.arrive(t, 3)
	_, done4 := h.arrive(t, 4)

	// THEN they are queued in arrival order with growing queue length
	ev := h.rec.Events()
	assert.Equal(t, []int{2, 3, 4}, clientsOf(ev, EventQueued))
	assert.Equal(t, []int{2, 3, 4}, h.shop.Snapshot().Queued)

	// WHEN the seat is repeatedly freed
	h.serve(t, 1, 1)
	awaitAdmit(t, done1)
	require.Eventually(t, func() bool { return indexOf(h.rec.Events(), EventPromoted, 2) >= 0 }, waitTimeout, time.Millisecond)
	h.serve(t, 1, 2)
	awaitAdmit(t, done2)
	require.Eventually(t, func() bool { return indexOf(h.rec.Events(), EventPromoted, 3) >= 0 }, waitTimeout, time.Millisecond)
	h.serve(t, 1, 3)
	awaitAdmit(t, done3)
	require.Eventually(t, func() bool { return indexOf(h.rec.Events(), EventPromoted, 4) >= 0 }, waitTimeout, time.Millisecond)
	h.serve(t, 1, 4)
	awaitAdmit(t, done4)

	// THEN promotions follow the queue order and each one follows a service end
	ev = h.rec.Events()
	assert.Equal(t, []int{2, 3, 4}, clientsOf(ev, EventPromoted))
	assert.Greater(t, indexOf(ev, EventPromoted, 2), indexOf(ev, EventServiceEnd, 1))
	assert.Greater(t, indexOf(ev, EventPromoted, 3), indexOf(ev, EventServiceEnd, 2))
	assert.Greater(t, indexOf(ev, EventPromoted, 4), indexOf(ev, EventServiceEnd, 3))

	select {
	case <-h.shop.Completed().Done():
	default:
		t.Fatal("completion counter did not reach 4")
	}
}

func TestShop_Claim_BlocksUntilClientSeated(t *testing.T) {
	h := newShopHarness(t, 1, 1)

	claimed := make(chan *Client, 1)
	go func() {
		c, err := h.shop.Claim(h.ctx, 1)
		if err == nil {
			claimed <- c
		}
	}()

	select {
	case <-claimed:
		t.Fatal("server claimed a client before anyone arrived")
	case <-time.After(20 * time.Millisecond):
	}

	h.arrive(t, 1)
	select {
	case c := <-claimed:
		assert.Equal(t, 1, c.ID)
	case <-time.After(waitTimeout):
		t.Fatal("server never claimed the seated client")
	}
}

func TestShop_Close_WakesQueuedClients(t *testing.T) {
	// GIVEN a shop whose only seat is taken and one queued client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shop := NewShop(1, 2, NopSink{}, NewStamper(clock.RealClock{}), nil)
	stop := shop.CloseOn(ctx)
	defer stop()

	seatedErr := make(chan error, 1)
	go func() { seatedErr <- shop.Admit(ctx, NewClient(1)) }()
	require.Eventually(t, func() bool { return shop.Snapshot().Occupied == 1 }, waitTimeout, time.Millisecond)

	queuedErr := make(chan error, 1)
	go func() { queuedErr <- shop.Admit(ctx, NewClient(2)) }()
	require.Eventually(t, func() bool { return len(shop.Snapshot().Queued) == 1 }, waitTimeout, time.Millisecond)

	// WHEN the run context is cancelled
	cancel()

	// THEN both clients give up instead of blocking forever
	for _, ch := range []chan error{seatedErr, queuedErr} {
		select {
		case err := <-ch:
			assert.Error(t, err)
		case <-time.After(waitTimeout):
			t.Fatal("client still blocked after close")
		}
	}

	// AND late arrivals are turned away
	assert.ErrorIs(t, shop.Admit(context.Background(), NewClient(3)), errShopClosed)
}

func TestShop_Claim_ReturnsOnCancel(t *testing.T) {
	shop := NewShop(1, 1, NopSink{}, NewStamper(clock.RealClock{}), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	c, err := shop.Claim(ctx, 1)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewShop_NilSink_Panics(t *testing.T) {
	assert.Panics(t, func() { NewShop(1, 1, nil, NewStamper(clock.RealClock{}), nil) })
}
