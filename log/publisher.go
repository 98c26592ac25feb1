package log

import (
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64

// Publisher is an [io.Writer] that fans out written log entries to
// subscribers.
//
// Each Write is copied once and delivered to every active [Subscription]
// through a buffered channel. When a subscriber falls behind, its oldest
// entry is dropped so Write never blocks the goroutine that is logging.
//
// A Publisher can optionally retain the most recent entries (see
// [WithHistory]) and replay them to new subscribers, so that a log pane
// created after startup still shows what happened before it existed.
//
// Create instances with [NewPublisher]. Safe for concurrent use.
type Publisher struct {
	subscribers []*Subscription
	history     [][]byte
	bufSize     int
	historySize int
	mu          sync.Mutex
	closed      bool
}

// PublisherOption configures a [Publisher].
type PublisherOption func(*Publisher)

// WithBufferSize sets the channel buffer size for new subscriptions.
// Values less than 1 are clamped to 1.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = max(n, 1)
	}
}

// WithHistory retains the last n entries for replay to new subscribers.
// Zero or negative disables replay.
func WithHistory(n int) PublisherOption {
	return func(p *Publisher) {
		p.historySize = max(n, 0)
	}
}

// NewPublisher creates a [Publisher] with the given options.
// The default buffer size is 64 and history is disabled.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Write copies b and sends the copy to all active subscribers. Closed
// subscriptions are compacted out of the subscriber list. Write always
// returns len(b), nil.
func (p *Publisher) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return len(b), nil
	}

	entry := make([]byte, len(b))
	copy(entry, b)

	p.remember(entry)

	alive := p.subscribers[:0]
	for _, sub := range p.subscribers {
		if sub.closed.Load() {
			close(sub.ch)
			continue
		}

		sub.offer(entry)

		alive = append(alive, sub)
	}

	for i := len(alive); i < len(p.subscribers); i++ {
		p.subscribers[i] = nil
	}

	p.subscribers = alive

	return len(b), nil
}

func (p *Publisher) remember(entry []byte) {
	if p.historySize == 0 {
		return
	}

	if len(p.history) == p.historySize {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}

	p.history = append(p.history, entry)
}

// Subscribe creates and registers a new [Subscription], pre-filled with any
// retained history. If the Publisher is already closed the returned
// subscription's channel is immediately closed.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := &Subscription{
		ch: make(chan []byte, p.bufSize),
	}

	if p.closed {
		close(sub.ch)
		return sub
	}

	for _, entry := range p.history {
		sub.offer(entry)
	}

	p.subscribers = append(p.subscribers, sub)

	return sub
}

// Close marks the Publisher as closed, closes all subscription channels,
// and releases the subscriber list and history. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	for _, sub := range p.subscribers {
		close(sub.ch)
	}

	p.subscribers = nil
	p.history = nil

	return nil
}

// Subscription receives log entries from a [Publisher].
type Subscription struct {
	ch     chan []byte
	closed atomic.Bool
}

// C returns the read-only channel that delivers log entries.
// Callers must not modify the returned byte slices.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Close marks the subscription as closed. The Publisher will close the
// underlying channel on its next Write or Close call. Idempotent.
func (s *Subscription) Close() {
	s.closed.Store(true)
}

// offer delivers entry, dropping the oldest queued entry when full. Must be
// called with the publisher lock held.
func (s *Subscription) offer(entry []byte) {
	for {
		select {
		case s.ch <- entry:
			return
		default:
		}

		select {
		case <-s.ch:
		default:
		}
	}
}
