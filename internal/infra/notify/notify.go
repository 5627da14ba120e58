// Package notify broadcasts "aggregate changed" signals after successful
// mutations.
//
// Signals carry no payload and are never replayed: a subscriber sees only
// what is published after it subscribed. Publishing never blocks, and a
// signal nobody can take is dropped.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 1

// Publisher is what mutating services depend on.
type Publisher interface {
	Publish(aggregate domain.Aggregate)
}

// Notifier fans out change signals per aggregate.
type Notifier struct {
	buffer int
	log    *slog.Logger

	mu   sync.RWMutex
	subs map[domain.Aggregate]map[uuid.UUID]chan struct{}
}

// New creates a Notifier. A buffer below 1 uses DefaultBuffer.
func New(buffer int) *Notifier {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Notifier{
		buffer: buffer,
		log:    slog.Default().With("component", "notify"),
		subs:   make(map[domain.Aggregate]map[uuid.UUID]chan struct{}),
	}
}

// Publish signals every current subscriber of aggregate. Subscribers whose
// buffer is full already hold a pending signal, so theirs is dropped.
func (n *Notifier) Publish(aggregate domain.Aggregate) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	subs := n.subs[aggregate]
	if len(subs) == 0 {
		metrics.NotificationsTotal.WithLabelValues(string(aggregate), "no_subscribers").Inc()
		return
	}

	for id, ch := range subs {
		select {
		case ch <- struct{}{}:
			metrics.NotificationsTotal.WithLabelValues(string(aggregate), "delivered").Inc()
		default:
			metrics.NotificationsTotal.WithLabelValues(string(aggregate), "dropped").Inc()
			n.log.Debug("subscriber busy, signal dropped", "aggregate", aggregate, "subscription", id)
		}
	}
}

// Subscribe returns a channel receiving one signal per publish on
// aggregate. The channel is closed once ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, aggregate domain.Aggregate) <-chan struct{} {
	id := uuid.New()
	ch := make(chan struct{}, n.buffer)

	n.mu.Lock()
	if n.subs[aggregate] == nil {
		n.subs[aggregate] = make(map[uuid.UUID]chan struct{})
	}
	n.subs[aggregate][id] = ch
	n.mu.Unlock()

	n.log.Debug("subscribed", "aggregate", aggregate, "subscription", id)

	go func() {
		<-ctx.Done()
		n.unsubscribe(aggregate, id)
	}()
	return ch
}

// Subscribers reports the live subscription count for aggregate.
func (n *Notifier) Subscribers(aggregate domain.Aggregate) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[aggregate])
}

func (n *Notifier) unsubscribe(aggregate domain.Aggregate, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subs[aggregate][id]
	if !ok {
		return
	}
	delete(n.subs[aggregate], id)
	if len(n.subs[aggregate]) == 0 {
		delete(n.subs, aggregate)
	}
	close(ch)
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(domain.Aggregate) {}
