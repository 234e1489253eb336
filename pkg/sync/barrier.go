package sync

import "context"

// Barrier is a reusable rendezvous point for a fixed number of tasks.
// Each generation, every task calling Wait suspends until the last
// one arrives; the final arrival wakes the rest and starts the next
// generation.
//
// Cancelling a Wait mid-generation leaves the arrival already
// counted: the remaining tasks still rendezvous once enough arrivals
// accumulate, but the cancelled task no longer observes completion.
// This is a documented limitation of barriers, not something the
// implementation can heal.
type Barrier struct {
	lk         spinLock
	n          int
	count      int
	generation uint64
	waiters    waitList
}

// NewBarrier creates a Barrier for n tasks. It panics if n is not
// positive.
func NewBarrier(n int) *Barrier {
	if n <= 0 {
		panic("sync: barrier size must be positive")
	}
	return &Barrier{n: n}
}

// BarrierWaitResult reports how a Wait completed.
type BarrierWaitResult struct {
	leader bool
}

// IsLeader reports whether this task made the final arrival of its
// generation. Exactly one result per generation is the leader, so
// callers can elect a representative for post-barrier bookkeeping
// without extra coordination.
func (r BarrierWaitResult) IsLeader() bool {
	return r.leader
}

// Wait blocks until n tasks have called Wait in the current
// generation, then releases all of them and resets the barrier for
// reuse.
func (b *Barrier) Wait(ctx context.Context) (BarrierWaitResult, error) {
	b.lk.lock()
	b.count++
	if b.count == b.n {
		b.count = 0
		b.generation++
		var woken waitList
		woken, b.waiters = b.waiters, waitList{}
		b.lk.unlock()
		wakeAll(woken)
		return BarrierWaitResult{leader: true}, nil
	}
	w := newWaiter()
	b.waiters.push(w)
	b.lk.unlock()

	if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
		b.lk.lock()
		b.waiters.remove(w)
		b.lk.unlock()
		return BarrierWaitResult{}, err
	}
	return BarrierWaitResult{}, nil
}

// Generation returns the number of completed rendezvous cycles.
func (b *Barrier) Generation() uint64 {
	b.lk.lock()
	gen := b.generation
	b.lk.unlock()
	return gen
}
