package sync

import "context"

// Mutex wraps a value behind a RawMutex. The value is only reachable
// through a MutexGuard, so holding a guard is the proof of exclusive
// access.
type Mutex[T any] struct {
	raw   RawMutex
	value T
}

// NewMutex creates a Mutex owning value.
func NewMutex[T any](value T) *Mutex[T] {
	return &Mutex[T]{value: value}
}

// Lock acquires the mutex and returns a guard granting exclusive
// access until the guard is unlocked. The guard must be unlocked on
// every exit path, typically with defer.
func (m *Mutex[T]) Lock(ctx context.Context) (*MutexGuard[T], error) {
	if err := m.raw.Lock(ctx); err != nil {
		return nil, err
	}
	return &MutexGuard[T]{m: m}, nil
}

// TryLock acquires the mutex without suspending, reporting whether a
// guard was obtained.
func (m *Mutex[T]) TryLock() (*MutexGuard[T], bool) {
	if !m.raw.TryLock() {
		return nil, false
	}
	return &MutexGuard[T]{m: m}, true
}

// MutexGuard is a scoped handle proving its holder has the mutex
// locked. Every guard must be unlocked exactly once.
//
// A task failing while holding a guard does not poison the mutex for
// later holders; program-level failure is fatal to the whole program,
// not something other tasks run past.
type MutexGuard[T any] struct {
	m        *Mutex[T]
	released bool
}

// Value returns the protected value. It panics if the guard has been
// unlocked.
func (g *MutexGuard[T]) Value() *T {
	if g.released {
		panic("sync: use of unlocked MutexGuard")
	}
	return &g.m.value
}

// Unlock releases the mutex. Unlocking a guard twice panics.
func (g *MutexGuard[T]) Unlock() {
	if g.released {
		panic("sync: MutexGuard unlocked twice")
	}
	g.released = true
	g.m.raw.Unlock()
}

// release and reacquire implement LockHandle for Condvar.

func (g *MutexGuard[T]) release() {
	g.Unlock()
}

func (g *MutexGuard[T]) reacquire(ctx context.Context) error {
	if err := g.m.raw.Lock(ctx); err != nil {
		return err
	}
	g.released = false
	return nil
}
