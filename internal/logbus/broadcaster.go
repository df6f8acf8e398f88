// Package logbus provides bounded in-memory retention and live fan-out of
// job output lines. Every line appended is kept in a FIFO history ring and
// delivered to all live subscriptions; subscribers that attach late are
// seeded with the most recent history so they get context immediately.
package logbus

import (
	"sync"
)

const (
	// DefaultHistorySize is how many lines are retained for late subscribers.
	DefaultHistorySize = 2000

	// DefaultSeedSize is how many trailing history lines a new subscription
	// receives at attach time.
	DefaultSeedSize = 500

	// DefaultQueueSize is the per-subscription queue capacity. Must be at
	// least the seed size so seeding can never fail.
	DefaultQueueSize = 1000
)

// Config holds Broadcaster tuning knobs. Zero values select the defaults.
type Config struct {
	HistorySize int
	SeedSize    int
	QueueSize   int
}

// Broadcaster owns the line history and the set of live subscriptions.
// A single mutex guards both so that seeding a new subscription and
// registering it is atomic with respect to concurrent appends: a line is
// either in the seed or delivered live, never both and never neither.
type Broadcaster struct {
	mu          sync.Mutex
	history     []string
	subscribers map[*Subscription]struct{}

	historySize int
	seedSize    int
	queueSize   int
}

// New creates a Broadcaster. Zero config fields fall back to the defaults.
func New(cfg Config) *Broadcaster {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.SeedSize <= 0 {
		cfg.SeedSize = DefaultSeedSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.QueueSize < cfg.SeedSize {
		cfg.QueueSize = cfg.SeedSize
	}

	return &Broadcaster{
		history:     make([]string, 0, cfg.HistorySize),
		subscribers: make(map[*Subscription]struct{}),
		historySize: cfg.HistorySize,
		seedSize:    cfg.SeedSize,
		queueSize:   cfg.QueueSize,
	}
}

// Append stores line in the history (evicting the oldest entry once the ring
// is full) and delivers it to every live subscription. Delivery never
// blocks: a subscription whose queue is full is dropped from the registry
// and its channel closed, so one stalled viewer cannot slow the job's
// capture loop or any other viewer.
func (b *Broadcaster) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) >= b.historySize {
		b.history = b.history[1:]
	}
	b.history = append(b.history, line)

	var dead []*Subscription
	for sub := range b.subscribers {
		select {
		case sub.ch <- line:
		default:
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		delete(b.subscribers, sub)
		sub.close()
	}
}

// Subscribe registers a new subscription seeded with up to the last
// seedSize history lines, oldest first. The returned subscription receives
// every Append that happens after this call returns, in append order.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		bus: b,
		ch:  make(chan string, b.queueSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	seed := b.history
	if len(seed) > b.seedSize {
		seed = seed[len(seed)-b.seedSize:]
	}
	// Queue capacity >= seed size, so these sends cannot block.
	for _, line := range seed {
		sub.ch <- line
	}

	b.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub from the registry and closes its channel.
// Safe to call more than once and safe for already-dropped subscriptions.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()

	sub.close()
}

// History returns a copy of the retained lines, oldest first.
func (b *Broadcaster) History() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.history))
	copy(out, b.history)
	return out
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
