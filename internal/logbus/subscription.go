package logbus

import "sync"

// Subscription is one live viewer of the line stream: a bounded queue that
// was pre-seeded with recent history when the viewer attached. It is owned
// by exactly one consumer; the Broadcaster only holds a registry reference
// for fan-out.
type Subscription struct {
	bus  *Broadcaster
	ch   chan string
	once sync.Once
}

// Lines returns the receive side of the queue. The channel is closed when
// the subscription is dropped, either by Close or because the queue
// overflowed while the consumer stalled.
func (s *Subscription) Lines() <-chan string {
	return s.ch
}

// Close unsubscribes from the Broadcaster. Idempotent; pending queued lines
// remain readable until drained.
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

// close closes the channel exactly once. Called with no locks held by the
// consumer path and with the broadcaster lock held on the drop path; both
// are safe because the only shared state is the once.
func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.ch)
	})
}
