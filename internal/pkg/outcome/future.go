package outcome

import (
	"context"
	"sync"
)

// Future is a one-shot asynchronous result. The first completion wins;
// later Resolve/Reject calls are ignored.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go runs fn in its own goroutine and returns a future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// Resolved returns an already completed future holding v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v, nil)
	return f
}

// Rejected returns an already failed future. A nil err is recorded as
// ErrUnknownFailure so the failure is never mistaken for success.
func Rejected[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.reject(err)
	return f
}

func (f *Future[T]) reject(err error) {
	if err == nil {
		err = ErrUnknownFailure
	}
	var zero T
	f.complete(zero, err)
}

// Promise is the write side of a Future, for callers that complete it from
// callbacks rather than a single function.
type Promise[T any] struct {
	future *Future[T]
}

func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{future: newFuture[T]()}
}

func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

func (p *Promise[T]) Resolve(v T) {
	p.future.complete(v, nil)
}

func (p *Promise[T]) Reject(err error) {
	p.future.reject(err)
}
