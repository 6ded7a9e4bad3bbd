// Package operation turns a single fetch into a stream of resource envelopes.
package operation

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/resource"

	"github.com/rs/zerolog/log"
)

// Source produces the envelopes of one invocation per call to Stream.
//
// The returned channel is closed after the terminal envelope, or as soon as
// ctx is done. No envelope is sent once ctx is done.
type Source[T any] interface {
	Stream(ctx context.Context) <-chan resource.Envelope[T]
}

// FetchFunc performs the underlying unit of work.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Task is a Source that emits Loading, waits Delay, runs Fetch and emits
// exactly one terminal envelope.
type Task[T any] struct {
	Name           string
	Delay          time.Duration // simulated latency, zero for live calls
	Fetch          FetchFunc[T]
	FailureMessage string // used when the error carries no text
}

// NewTask creates a Task.
func NewTask[T any](name string, delay time.Duration, failureMessage string, fetch FetchFunc[T]) *Task[T] {
	return &Task[T]{Name: name, Delay: delay, Fetch: fetch, FailureMessage: failureMessage}
}

func (t *Task[T]) Stream(ctx context.Context) <-chan resource.Envelope[T] {
	out := make(chan resource.Envelope[T])
	go func() {
		defer close(out)
		if !send(ctx, out, resource.Loading[T]()) {
			return
		}
		if t.Delay > 0 {
			timer := time.NewTimer(t.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Debug().Str("source", t.Name).Msg("operation cancelled during delay")
				return
			case <-timer.C:
			}
		}
		send(ctx, out, t.run(ctx))
	}()
	return out
}

// run calls Fetch and maps every outcome, including a panic, to a terminal envelope.
func (t *Task[T]) run(ctx context.Context) (env resource.Envelope[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", t.Name).Interface("panic", r).Msg("operation panicked")
			env = resource.Error[T](t.describe(fmt.Errorf("%v", r)))
		}
	}()

	value, err := t.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("source", t.Name).Msg("operation failed")
		}
		return resource.Error[T](t.describe(err))
	}
	return resource.Success(value)
}

func (t *Task[T]) describe(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	if t.FailureMessage != "" {
		return t.FailureMessage
	}
	return "operation failed"
}

// Just is a Source that emits a single envelope without a preceding Loading.
type Just[T any] struct {
	Envelope resource.Envelope[T]
}

func (j Just[T]) Stream(ctx context.Context) <-chan resource.Envelope[T] {
	out := make(chan resource.Envelope[T], 1)
	if ctx.Err() == nil {
		out <- j.Envelope
	}
	close(out)
	return out
}

// Collect drains one invocation of src and returns every envelope it produced.
func Collect[T any](ctx context.Context, src Source[T]) []resource.Envelope[T] {
	var envs []resource.Envelope[T]
	for env := range src.Stream(ctx) {
		envs = append(envs, env)
	}
	return envs
}

// Terminal drains src and returns its terminal envelope. ok is false if the
// invocation was cancelled before producing one.
func Terminal[T any](ctx context.Context, src Source[T]) (env resource.Envelope[T], ok bool) {
	for e := range src.Stream(ctx) {
		if e.IsTerminal() {
			env, ok = e, true
		}
	}
	return env, ok
}

func send[T any](ctx context.Context, out chan<- resource.Envelope[T], env resource.Envelope[T]) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case out <- env:
		return true
	}
}
