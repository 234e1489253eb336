package sync

import "context"

// RwLock allows any number of concurrent readers or one exclusive
// writer of the wrapped value.
//
// The policy is writer-priority: once a writer is queued, new readers
// queue behind it instead of jumping ahead, bounding writer
// starvation. Readers already holding the lock finish normally.
//
// Upgrading a read guard to a write guard is not supported; it would
// require releasing the read lock and racing for the write lock,
// reintroducing the check-then-act hazard guards exist to prevent.
type RwLock[T any] struct {
	lk            spinLock
	readers       int
	writer        bool
	queuedWriters int
	waiters       waitList
	value         T
}

// NewRwLock creates an RwLock owning value.
func NewRwLock[T any](value T) *RwLock[T] {
	return &RwLock[T]{value: value}
}

// TryRead acquires shared access without suspending, reporting
// whether a guard was obtained.
func (l *RwLock[T]) TryRead() (*RwLockReadGuard[T], bool) {
	l.lk.lock()
	ok := !l.writer && l.queuedWriters == 0
	if ok {
		l.readers++
	}
	l.lk.unlock()
	if !ok {
		return nil, false
	}
	return &RwLockReadGuard[T]{l: l}, true
}

// Read acquires shared access, suspending while a writer holds the
// lock or is queued ahead.
func (l *RwLock[T]) Read(ctx context.Context) (*RwLockReadGuard[T], error) {
	l.lk.lock()
	if !l.writer && l.queuedWriters == 0 {
		l.readers++
		l.lk.unlock()
		return &RwLockReadGuard[T]{l: l}, nil
	}
	w := newWaiter()
	l.waiters.push(w)
	l.lk.unlock()

	if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
		l.lk.lock()
		removed := l.waiters.remove(w)
		l.lk.unlock()
		if !removed {
			// Shared access was already committed to this waiter.
			l.releaseRead()
		}
		return nil, err
	}
	return &RwLockReadGuard[T]{l: l}, nil
}

// TryWrite acquires exclusive access without suspending, reporting
// whether a guard was obtained.
func (l *RwLock[T]) TryWrite() (*RwLockWriteGuard[T], bool) {
	l.lk.lock()
	ok := !l.writer && l.readers == 0
	if ok {
		l.writer = true
	}
	l.lk.unlock()
	if !ok {
		return nil, false
	}
	return &RwLockWriteGuard[T]{l: l}, true
}

// Write acquires exclusive access, suspending while the lock is held
// in any mode.
func (l *RwLock[T]) Write(ctx context.Context) (*RwLockWriteGuard[T], error) {
	l.lk.lock()
	if !l.writer && l.readers == 0 {
		l.writer = true
		l.lk.unlock()
		return &RwLockWriteGuard[T]{l: l}, nil
	}
	w := newWaiter()
	w.write = true
	l.waiters.push(w)
	l.queuedWriters++
	l.lk.unlock()

	if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
		l.lk.lock()
		removed := l.waiters.remove(w)
		if removed {
			l.queuedWriters--
			// The cancelled writer may have been the only thing
			// blocking queued readers.
			woken := l.nextLocked()
			l.lk.unlock()
			wakeAll(woken)
		} else {
			l.lk.unlock()
			// Exclusive access was already committed to this waiter.
			l.releaseWrite()
		}
		return nil, err
	}
	return &RwLockWriteGuard[T]{l: l}, nil
}

func (l *RwLock[T]) releaseRead() {
	l.lk.lock()
	l.readers--
	var woken waitList
	if l.readers == 0 {
		woken = l.nextLocked()
	}
	l.lk.unlock()
	wakeAll(woken)
}

func (l *RwLock[T]) releaseWrite() {
	l.lk.lock()
	l.writer = false
	woken := l.nextLocked()
	l.lk.unlock()
	wakeAll(woken)
}

// nextLocked commits the lock to the next queued party: a writer if
// one heads the queue, otherwise every waiting reader up to the next
// queued writer. A writer at the head additionally waits for current
// readers to drain; readers at the head may join current readers, so
// a writer cancelling out of the queue wakes them immediately. The
// state transition happens here, before the wake, so woken tasks hold
// the lock the moment they resume. Callers must hold lk and wake the
// returned list after releasing it.
func (l *RwLock[T]) nextLocked() waitList {
	var woken waitList
	head := l.waiters.head
	if head == nil || l.writer {
		return woken
	}
	if head.write {
		if l.readers > 0 {
			return woken
		}
		l.waiters.pop()
		l.queuedWriters--
		l.writer = true
		woken.push(head)
		return woken
	}
	for l.waiters.head != nil && !l.waiters.head.write {
		w := l.waiters.pop()
		l.readers++
		woken.push(w)
	}
	return woken
}

func wakeAll(list waitList) {
	for w := list.pop(); w != nil; w = list.pop() {
		w.wake()
	}
}

// RwLockReadGuard is a scoped handle proving shared access. The value
// it exposes must not be mutated.
type RwLockReadGuard[T any] struct {
	l        *RwLock[T]
	released bool
}

// Value returns the protected value for reading. It panics if the
// guard has been unlocked.
func (g *RwLockReadGuard[T]) Value() *T {
	if g.released {
		panic("sync: use of unlocked RwLockReadGuard")
	}
	return &g.l.value
}

// Unlock releases shared access. Unlocking a guard twice panics.
func (g *RwLockReadGuard[T]) Unlock() {
	if g.released {
		panic("sync: RwLockReadGuard unlocked twice")
	}
	g.released = true
	g.l.releaseRead()
}

// RwLockWriteGuard is a scoped handle proving exclusive access.
type RwLockWriteGuard[T any] struct {
	l        *RwLock[T]
	released bool
}

// Value returns the protected value. It panics if the guard has been
// unlocked.
func (g *RwLockWriteGuard[T]) Value() *T {
	if g.released {
		panic("sync: use of unlocked RwLockWriteGuard")
	}
	return &g.l.value
}

// Unlock releases exclusive access. Unlocking a guard twice panics.
func (g *RwLockWriteGuard[T]) Unlock() {
	if g.released {
		panic("sync: RwLockWriteGuard unlocked twice")
	}
	g.released = true
	g.l.releaseWrite()
}
