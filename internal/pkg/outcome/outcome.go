// Package outcome turns fallible asynchronous work into a result envelope
// that always completes, so callers inspect Err instead of handling failures
// on two paths.
package outcome

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoOperation    = errors.New("no operation provided")
	ErrNotPending     = errors.New("factory did not return a pending operation")
	ErrUnknownFailure = errors.New("operation failed without an error value")
)

// Outcome carries either Data or Err, never both. On failure Data is the
// zero value of T.
type Outcome[T any] struct {
	Err  error
	Data T
}

func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

// PanicError is captured when a factory panics with a non-error value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", e.Value)
}

// Source is either an Operation (already running) or a Factory (started on demand).
type Source[T any] interface {
	start() *Future[T]
}

// Operation wraps a future that is already in flight.
type Operation[T any] struct {
	Future *Future[T]
}

func (o Operation[T]) start() *Future[T] {
	if o.Future == nil {
		return Rejected[T](ErrNoOperation)
	}
	return o.Future
}

// Factory produces the operation when the wrapper is invoked.
type Factory[T any] func() *Future[T]

func (f Factory[T]) start() (fut *Future[T]) {
	if f == nil {
		return Rejected[T](ErrNoOperation)
	}
	defer func() {
		if r := recover(); r != nil {
			fut = Rejected[T](panicToError(r))
		}
	}()
	fut = f()
	if fut == nil {
		return Rejected[T](ErrNotPending)
	}
	return fut
}

// Wrap is shorthand for Operation{Future: f}.
func Wrap[T any](f *Future[T]) Operation[T] {
	return Operation[T]{Future: f}
}

// On returns a future that always resolves with an Outcome. It never rejects.
func On[T any](src Source[T]) *Future[Outcome[T]] {
	if src == nil {
		return Resolved(Outcome[T]{Err: ErrNoOperation})
	}
	fut := src.start()

	// Already settled (synthesized errors, resolved futures): no goroutine needed.
	select {
	case <-fut.Done():
		return Resolved(settle(fut))
	default:
	}

	out := newFuture[Outcome[T]]()
	go func() {
		<-fut.Done()
		out.complete(settle(fut), nil)
	}()
	return out
}

// OnFuture is On for an in-flight future, with T inferred.
func OnFuture[T any](f *Future[T]) *Future[Outcome[T]] {
	return On[T](Operation[T]{Future: f})
}

// OnFactory is On for a factory function, with T inferred.
func OnFactory[T any](fn func() *Future[T]) *Future[Outcome[T]] {
	return On[T](Factory[T](fn))
}

// Await runs On and waits for its outcome. If ctx ends first the outcome
// carries ctx.Err(); the wrapped operation keeps running.
func Await[T any](ctx context.Context, src Source[T]) Outcome[T] {
	res, err := On(src).Await(ctx)
	if err != nil {
		return Outcome[T]{Err: err}
	}
	return res
}

func settle[T any](fut *Future[T]) Outcome[T] {
	if fut.err != nil {
		return Outcome[T]{Err: fut.err}
	}
	return Outcome[T]{Data: fut.val}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
