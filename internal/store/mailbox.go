package store

import "sync"

// mailbox delivers snapshots to one observer on its own goroutine, in the
// order they were posted. Posting never blocks.
type mailbox[D any] struct {
	observer func(State[D])

	mu      sync.Mutex
	queue   []State[D]
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func newMailbox[D any](observer func(State[D])) *mailbox[D] {
	m := &mailbox[D]{
		observer: observer,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *mailbox[D]) post(s State[D]) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, s)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// stop discards undelivered snapshots. A delivery already running finishes.
func (m *mailbox[D]) stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.queue = nil
	m.mu.Unlock()
	close(m.done)
}

func (m *mailbox[D]) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for {
			s, ok := m.next()
			if !ok {
				break
			}
			m.observer(s)
		}
	}
}

func (m *mailbox[D]) next() (State[D], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || len(m.queue) == 0 {
		var zero State[D]
		return zero, false
	}
	s := m.queue[0]
	m.queue[0] = State[D]{}
	m.queue = m.queue[1:]
	return s, true
}
