package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nevlife/nev-gcs/internal/timeutil"
)

// KeepaliveInterval is the floor on notification silence: if no state
// change has been observed for this long, subscribers are signalled anyway.
const KeepaliveInterval = 5 * time.Second

// Notifier watches the State version counter and signals subscribers when
// it moves. Signals are coalesced: each subscriber channel holds at most
// one pending notification, and a burst of mutations between two watch
// ticks produces a single signal.
type Notifier struct {
	state    *State
	clock    timeutil.Clock
	interval time.Duration

	mu   sync.Mutex
	subs map[string]chan struct{}
}

// NewNotifier creates a Notifier polling the state at the given interval
// (the station's state_push_interval).
func NewNotifier(s *State, clock timeutil.Clock, interval time.Duration) *Notifier {
	return &Notifier{
		state:    s,
		clock:    clock,
		interval: interval,
		subs:     make(map[string]chan struct{}),
	}
}

// Subscribe registers a new consumer and returns its ID and signal channel.
// The channel carries no payload; consumers take a fresh Snapshot when
// signalled.
func (n *Notifier) Subscribe() (string, <-chan struct{}) {
	id := uuid.NewString()
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		close(ch)
		delete(n.subs, id)
	}
}

// Run watches the state until the context is cancelled. Each watch tick
// signals subscribers if the version moved since the last tick, or if the
// keepalive floor has elapsed since the last signal.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := n.clock.NewTicker(n.interval)
	defer ticker.Stop()

	lastVersion := n.state.Version()
	lastSignal := n.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			version := n.state.Version()
			if version == lastVersion && now.Sub(lastSignal) < KeepaliveInterval {
				continue
			}
			lastVersion = version
			lastSignal = now
			n.broadcast()
		}
	}
}

func (n *Notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber already has a pending signal; coalesce.
		}
	}
}
