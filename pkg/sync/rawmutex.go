package sync

import "context"

// RawMutex is the minimal exclusive-lock state machine. It owns no
// data; Mutex wraps it with a value and scoped guards.
//
// Unlock with waiters queued transfers ownership to the head waiter:
// the state stays locked and the woken task holds the lock without
// re-attempting acquisition, so a stream of fresh lockers can never
// starve a queued one.
//
// A task calling Lock while already holding the mutex deadlocks. The
// mutex keeps no per-task identity, so this is not detected.
type RawMutex struct {
	lk      spinLock
	locked  bool
	waiters waitList
}

// TryLock acquires the mutex without suspending. It reports whether
// the mutex was acquired.
func (m *RawMutex) TryLock() bool {
	m.lk.lock()
	ok := !m.locked
	if ok {
		m.locked = true
	}
	m.lk.unlock()
	return ok
}

// Lock acquires the mutex, suspending the calling task while another
// task holds it. Waiters acquire in FIFO order. On cancellation the
// wait is abandoned; if ownership was already transferred, the mutex
// is released again before returning.
func (m *RawMutex) Lock(ctx context.Context) error {
	m.lk.lock()
	if !m.locked {
		m.locked = true
		m.lk.unlock()
		return nil
	}
	w := newWaiter()
	m.waiters.push(w)
	m.lk.unlock()

	if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
		m.lk.lock()
		removed := m.waiters.remove(w)
		m.lk.unlock()
		if !removed {
			// An Unlock already committed the mutex to this waiter.
			m.Unlock()
		}
		return err
	}
	return nil
}

// Unlock releases the mutex. If waiters are queued, ownership
// transfers to the head waiter and the mutex stays locked on its
// behalf. Unlocking an unlocked mutex panics.
func (m *RawMutex) Unlock() {
	m.lk.lock()
	if !m.locked {
		m.lk.unlock()
		panic("sync: unlock of unlocked RawMutex")
	}
	w := m.waiters.pop()
	if w == nil {
		m.locked = false
	}
	m.lk.unlock()
	if w != nil {
		w.wake()
	}
}
