// Package resource defines the envelope emitted by asynchronous operations:
// one of Loading, Success or Error.
package resource

import "reflect"

// Kind tags the variant held by an Envelope.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Envelope is a single state of an asynchronous operation.
//
// Loading may carry the last known good value, Success always carries the
// fetched value and Error carries a message plus an optional stale value.
// The zero Envelope is Loading with no value.
type Envelope[T any] struct {
	kind     Kind
	value    T
	hasValue bool
	message  string
}

// Loading reports that work is in flight.
func Loading[T any]() Envelope[T] {
	return Envelope[T]{kind: KindLoading}
}

// LoadingWith reports work in flight while keeping the previous value visible.
func LoadingWith[T any](stale T) Envelope[T] {
	return Envelope[T]{kind: KindLoading, value: stale, hasValue: true}
}

// Success is the terminal envelope of a successful operation.
func Success[T any](value T) Envelope[T] {
	return Envelope[T]{kind: KindSuccess, value: value, hasValue: true}
}

// Error is the terminal envelope of a failed operation.
func Error[T any](message string) Envelope[T] {
	return Envelope[T]{kind: KindError, message: message}
}

// ErrorWith is a failure that still carries the last known good value.
func ErrorWith[T any](message string, stale T) Envelope[T] {
	return Envelope[T]{kind: KindError, message: message, value: stale, hasValue: true}
}

func (e Envelope[T]) Kind() Kind { return e.kind }

// Value returns the payload (fresh for Success, stale otherwise) and whether one is present.
func (e Envelope[T]) Value() (T, bool) { return e.value, e.hasValue }

// Message is empty unless the envelope is an Error.
func (e Envelope[T]) Message() string { return e.message }

func (e Envelope[T]) IsLoading() bool { return e.kind == KindLoading }
func (e Envelope[T]) IsSuccess() bool { return e.kind == KindSuccess }
func (e Envelope[T]) IsError() bool   { return e.kind == KindError }

// IsTerminal reports whether no further envelope follows this one.
func (e Envelope[T]) IsTerminal() bool { return e.kind != KindLoading }

// Equal compares variant, message and payload structurally.
func (e Envelope[T]) Equal(other Envelope[T]) bool {
	if e.kind != other.kind || e.message != other.message || e.hasValue != other.hasValue {
		return false
	}
	if !e.hasValue {
		return true
	}
	return reflect.DeepEqual(e.value, other.value)
}

// OnSuccess calls action with the payload if e is a Success.
func (e Envelope[T]) OnSuccess(action func(T)) Envelope[T] {
	if e.kind == KindSuccess {
		action(e.value)
	}
	return e
}

// OnError calls action with the message if e is an Error.
func (e Envelope[T]) OnError(action func(string)) Envelope[T] {
	if e.kind == KindError {
		action(e.message)
	}
	return e
}

// OnLoading calls action if e is Loading.
func (e Envelope[T]) OnLoading(action func()) Envelope[T] {
	if e.kind == KindLoading {
		action()
	}
	return e
}

// Handlers lists one callback per variant. Fold requires all of them.
type Handlers[T, R any] struct {
	Loading func(stale T, ok bool) R
	Success func(value T) R
	Error   func(message string, stale T, ok bool) R
}

// Fold maps e to R with the handler matching its variant.
func Fold[T, R any](e Envelope[T], h Handlers[T, R]) R {
	switch e.kind {
	case KindSuccess:
		return h.Success(e.value)
	case KindError:
		return h.Error(e.message, e.value, e.hasValue)
	default:
		return h.Loading(e.value, e.hasValue)
	}
}
