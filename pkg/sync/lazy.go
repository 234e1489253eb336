package sync

import "context"

// LazyLock is a value computed on first access. It composes an
// OnceLock with an initializer supplied at construction; after the
// first successful access the initializer is dropped and never
// invoked again.
type LazyLock[T any] struct {
	cell OnceLock[T]
	init func() (T, error)
}

// NewLazyLock creates a LazyLock that computes its value with init on
// first access.
func NewLazyLock[T any](init func() (T, error)) *LazyLock[T] {
	return &LazyLock[T]{init: init}
}

// Get returns the value, computing it on first access. Concurrent
// callers during the first access suspend until the value is ready
// and all observe the same value. If the initializer fails, the error
// propagates and a later Get retries.
func (l *LazyLock[T]) Get(ctx context.Context) (T, error) {
	return l.cell.GetOrInit(ctx, func() (T, error) {
		v, err := l.init()
		if err != nil {
			return v, err
		}
		l.init = nil
		return v, nil
	})
}
