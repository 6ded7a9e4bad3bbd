// Package store holds a single current snapshot fed by operation sources and
// republishes every transition to its observers.
package store

import (
	"context"
	"sync"

	"SignalDesk/internal/operation"
	"SignalDesk/internal/resource"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// State is one immutable snapshot of a holder.
type State[D any] struct {
	Data      D
	IsLoading bool   // true while any source is in flight
	Error     string // last error message, empty if none
	Version   uint64 // incremented on every transition
}

// Holder owns the current State and the sources feeding it.
//
// Each transition replaces the snapshot as a whole. Payloads merged into Data
// must not be mutated after they are handed to the holder.
type Holder[D any] struct {
	mu        sync.Mutex
	state     State[D]
	slots     map[string]*slot
	observers map[uint64]*mailbox[D]
	nextID    uint64
	closed    bool
	idle      chan struct{} // closed once no invocation is running
}

// slot tracks the latest invocation started for one key.
type slot struct {
	seq      uint64
	id       uuid.UUID
	cancel   context.CancelFunc
	inFlight bool
}

// New creates a Holder whose initial snapshot carries data.
func New[D any](data D) *Holder[D] {
	return &Holder[D]{
		state:     State[D]{Data: data},
		slots:     make(map[string]*slot),
		observers: make(map[uint64]*mailbox[D]),
	}
}

// Current returns the latest snapshot.
func (h *Holder[D]) Current() State[D] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe registers observer. It receives the current snapshot first and then
// every later transition, in order, on a goroutine of its own. The returned
// function unsubscribes; calling it more than once is harmless.
//
// When the last observer unsubscribes, every in-flight source is cancelled.
func (h *Holder[D]) Subscribe(observer func(State[D])) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}

	h.nextID++
	id := h.nextID
	mb := newMailbox(observer)
	h.observers[id] = mb
	mb.post(h.state)

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Holder[D]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mb, ok := h.observers[id]
	if !ok {
		return
	}
	delete(h.observers, id)
	mb.stop()

	if len(h.observers) == 0 && h.cancelAll() {
		h.state.IsLoading = false
		h.state.Version++
		log.Debug().Msg("last observer left, in-flight sources cancelled")
	}
	h.signalIdle()
}

// Update applies fn to the data outside of any source, as one transition.
func (h *Holder[D]) Update(fn func(D) D) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.state.Data = fn(h.state.Data)
	h.publish()
}

// Reset abandons the running invocations of keys and applies fn to the data,
// as one transition. Nothing those invocations emit afterwards is merged.
func (h *Holder[D]) Reset(fn func(D) D, keys ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, key := range keys {
		s, ok := h.slots[key]
		if !ok || s.cancel == nil {
			continue
		}
		s.cancel()
		s.cancel = nil
		s.seq++
		s.inFlight = false
	}
	h.state.Data = fn(h.state.Data)
	h.state.IsLoading = h.anyInFlight()
	h.publish()
	h.signalIdle()
}

// Cancel stops the in-flight invocation of key, if any, and clears its
// loading flag.
func (h *Holder[D]) Cancel(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.slots[key]
	if !ok || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.seq++
	if s.inFlight {
		s.inFlight = false
		h.state.IsLoading = h.anyInFlight()
		h.publish()
	}
	h.signalIdle()
}

// Settle waits until no invocation is running and returns the snapshot at
// that point.
func (h *Holder[D]) Settle(ctx context.Context) (State[D], error) {
	h.mu.Lock()
	if !h.running() {
		defer h.mu.Unlock()
		return h.state, nil
	}
	if h.idle == nil {
		h.idle = make(chan struct{})
	}
	idle := h.idle
	h.mu.Unlock()

	select {
	case <-idle:
		return h.Current(), nil
	case <-ctx.Done():
		var zero State[D]
		return zero, ctx.Err()
	}
}

// Close cancels every source and stops delivery to all observers.
func (h *Holder[D]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.cancelAll()
	h.state.IsLoading = false
	h.signalIdle()
	for id, mb := range h.observers {
		mb.stop()
		delete(h.observers, id)
	}
}

// Launch starts a new invocation of src under key. Any invocation still in
// flight for the same key is cancelled, and whatever it emits afterwards is
// discarded. Success envelopes are folded into the data with apply.
func Launch[D, T any](h *Holder[D], key string, src operation.Source[T], apply func(D, T) D) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	s, ok := h.slots[key]
	if !ok {
		s = &slot{}
		h.slots[key] = s
	}
	if s.cancel != nil {
		s.cancel()
		log.Debug().Str("key", key).Str("invocation", s.id.String()).Msg("invocation superseded")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.seq++
	s.id = uuid.New()
	s.cancel = cancel
	seq, id := s.seq, s.id
	h.mu.Unlock()

	log.Debug().Str("key", key).Str("invocation", id.String()).Msg("invocation started")

	go func() {
		defer cancel()
		for env := range src.Stream(ctx) {
			merge(ctx, h, key, seq, env, apply)
		}
		h.finish(key, seq)
	}()
}

func merge[D, T any](ctx context.Context, h *Holder[D], key string, seq uint64, env resource.Envelope[T], apply func(D, T) D) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.slots[key]
	if h.closed || ctx.Err() != nil || s == nil || s.seq != seq {
		return
	}

	switch env.Kind() {
	case resource.KindLoading:
		s.inFlight = true
		h.state.IsLoading = true
	case resource.KindSuccess:
		v, _ := env.Value()
		h.state.Data = apply(h.state.Data, v)
		h.state.Error = ""
		s.inFlight = false
		h.state.IsLoading = h.anyInFlight()
	case resource.KindError:
		h.state.Error = env.Message()
		s.inFlight = false
		h.state.IsLoading = h.anyInFlight()
		log.Debug().Str("key", key).Str("error", env.Message()).Msg("source failed")
	}
	h.publish()
}

// finish clears the loading flag of an invocation that ended without a
// terminal envelope.
func (h *Holder[D]) finish(key string, seq uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.slots[key]
	if s == nil || s.seq != seq {
		return
	}
	s.cancel = nil
	if s.inFlight && !h.closed {
		s.inFlight = false
		h.state.IsLoading = h.anyInFlight()
		h.publish()
	}
	h.signalIdle()
}

// cancelAll reports whether any invocation was in flight. Callers hold mu.
func (h *Holder[D]) cancelAll() bool {
	cancelled := false
	for _, s := range h.slots {
		if s.cancel == nil {
			continue
		}
		s.cancel()
		s.cancel = nil
		s.seq++
		if s.inFlight {
			cancelled = true
		}
		s.inFlight = false
	}
	return cancelled
}

// running reports whether any invocation has started and not yet ended.
func (h *Holder[D]) running() bool {
	for _, s := range h.slots {
		if s.cancel != nil {
			return true
		}
	}
	return false
}

func (h *Holder[D]) signalIdle() {
	if h.idle != nil && !h.running() {
		close(h.idle)
		h.idle = nil
	}
}

func (h *Holder[D]) anyInFlight() bool {
	for _, s := range h.slots {
		if s.inFlight {
			return true
		}
	}
	return false
}

// publish bumps the version and posts the snapshot to every observer.
// Callers hold mu.
func (h *Holder[D]) publish() {
	h.state.Version++
	for _, mb := range h.observers {
		mb.post(h.state)
	}
}
