package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/core/domain"
)

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
	case <-time.After(time.Second):
		t.Fatal("no signal received")
	}
}

func nothing(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected signal")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPublish_NoSubscribersNeverBlocks(t *testing.T) {
	n := New(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.Publish(domain.AggregateCart)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without subscribers")
	}
}

func TestPublish_ReachesSubscribersOfThatAggregate(t *testing.T) {
	n := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cart1 := n.Subscribe(ctx, domain.AggregateCart)
	cart2 := n.Subscribe(ctx, domain.AggregateCart)
	deliveries := n.Subscribe(ctx, domain.AggregateDeliveries)

	n.Publish(domain.AggregateCart)

	receive(t, cart1)
	receive(t, cart2)
	nothing(t, deliveries)
}

func TestSubscribe_NoReplay(t *testing.T) {
	n := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n.Publish(domain.AggregateSales)
	ch := n.Subscribe(ctx, domain.AggregateSales)

	nothing(t, ch)
}

func TestPublish_FullBufferDrops(t *testing.T) {
	n := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := n.Subscribe(ctx, domain.AggregateCart)

	done := make(chan struct{})
	go func() {
		n.Publish(domain.AggregateCart)
		n.Publish(domain.AggregateCart)
		n.Publish(domain.AggregateCart)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	receive(t, ch)
	nothing(t, ch)
}

func TestSubscribe_ClosesWhenContextEnds(t *testing.T) {
	n := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	ch := n.Subscribe(ctx, domain.AggregateDeliveries)
	require.Equal(t, 1, n.Subscribers(domain.AggregateDeliveries))

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool {
		return n.Subscribers(domain.AggregateDeliveries) == 0
	}, time.Second, 5*time.Millisecond)

	// publishing after teardown is still safe
	n.Publish(domain.AggregateDeliveries)
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	p.Publish(domain.AggregateInventory)
}
