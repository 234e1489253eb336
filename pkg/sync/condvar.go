package sync

import "context"

// LockHandle is a held scoped lock that a Condvar can release and
// re-acquire around a wait. MutexGuard implements it.
type LockHandle interface {
	release()
	reacquire(ctx context.Context) error
}

// Condvar is a wait/notify rendezvous associated with an external
// mutex. A waiting task atomically releases the held lock and
// suspends; a notification wakes it and the lock is re-acquired
// before Wait returns.
//
// Tasks are only woken by explicit notifications, never spuriously.
// Callers must still re-check their predicate after Wait returns:
// another task may have changed the protected state between the
// notification and the re-acquisition.
type Condvar struct {
	lk      spinLock
	waiters waitList
}

// Wait releases the lock held through g, suspends the calling task
// until notified, then re-acquires the lock and returns with g valid
// again. The waiter is queued before the lock is released, so a
// notification sent by any task that observes the lock free is never
// lost.
//
// On a non-nil return the lock is not held and g must not be used.
// If a notification raced with the cancellation it is passed on to
// the next waiter.
func (c *Condvar) Wait(ctx context.Context, g LockHandle) error {
	w := newWaiter()
	c.lk.lock()
	c.waiters.push(w)
	c.lk.unlock()
	g.release()

	if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
		c.lk.lock()
		removed := c.waiters.remove(w)
		c.lk.unlock()
		if !removed {
			c.NotifyOne()
		}
		return err
	}
	return g.reacquire(ctx)
}

// NotifyOne wakes the task waiting longest, if any.
func (c *Condvar) NotifyOne() {
	c.lk.lock()
	w := c.waiters.pop()
	c.lk.unlock()
	if w != nil {
		w.wake()
	}
}

// NotifyAll wakes every task currently waiting.
func (c *Condvar) NotifyAll() {
	c.lk.lock()
	var woken waitList
	woken, c.waiters = c.waiters, waitList{}
	c.lk.unlock()
	for w := woken.pop(); w != nil; w = woken.pop() {
		w.wake()
	}
}
