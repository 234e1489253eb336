package sync

import "context"

type onceState uint8

const (
	onceIdle onceState = iota
	onceRunning
	onceDone
)

// Once runs a side-effecting initializer exactly once across any
// number of racing callers. Tasks arriving while the initializer runs
// suspend until it completes.
//
// If the initializer fails (returns an error or panics), the state
// resets to uninitialized and queued waiters are woken to re-attempt
// initialization; the failure itself propagates only to the caller
// whose initializer ran. A Once is therefore never stuck at
// "initializing" once its initializer has returned.
type Once struct {
	lk      spinLock
	state   onceState
	waiters waitList
}

// Done reports whether the initializer has completed successfully.
func (o *Once) Done() bool {
	o.lk.lock()
	done := o.state == onceDone
	o.lk.unlock()
	return done
}

// Do runs fn if o has not yet been initialized. The caller that
// observes the uninitialized state runs fn synchronously; all others
// suspend until fn completes. When Do returns nil, some invocation of
// fn has completed successfully.
func (o *Once) Do(ctx context.Context, fn func() error) error {
	for {
		o.lk.lock()
		switch o.state {
		case onceDone:
			o.lk.unlock()
			return nil
		case onceIdle:
			o.state = onceRunning
			o.lk.unlock()
			return o.run(fn)
		default:
			w := newWaiter()
			o.waiters.push(w)
			o.lk.unlock()
			if err := ParkerFrom(ctx).Park(ctx, w.ready); err != nil {
				o.lk.lock()
				o.waiters.remove(w)
				o.lk.unlock()
				return err
			}
			// The initializer finished, successfully or not.
			// Re-examine the state; on failure this caller becomes
			// the next initializer.
		}
	}
}

// run invokes fn and settles the state. The deferred settle also runs
// when fn panics, resetting to uninitialized before the panic
// propagates.
func (o *Once) run(fn func() error) error {
	completed := false
	defer func() {
		o.lk.lock()
		if completed {
			o.state = onceDone
		} else {
			o.state = onceIdle
		}
		var woken waitList
		woken, o.waiters = o.waiters, waitList{}
		o.lk.unlock()
		wakeAll(woken)
	}()
	if err := fn(); err != nil {
		return err
	}
	completed = true
	return nil
}

// OnceLock is a Once that additionally stores the value produced by
// its initializer.
type OnceLock[T any] struct {
	once  Once
	value T
}

// Get returns the stored value, reporting false if the lock has not
// been initialized.
func (l *OnceLock[T]) Get() (T, bool) {
	l.once.lk.lock()
	done := l.once.state == onceDone
	l.once.lk.unlock()
	if !done {
		var zero T
		return zero, false
	}
	return l.value, true
}

// Set stores value if the lock is uninitialized and no initializer is
// running, reporting whether the value was stored.
func (l *OnceLock[T]) Set(value T) bool {
	l.once.lk.lock()
	if l.once.state != onceIdle {
		l.once.lk.unlock()
		return false
	}
	l.value = value
	l.once.state = onceDone
	l.once.lk.unlock()
	return true
}

// GetOrInit returns the stored value, running fn to produce it if the
// lock is uninitialized. Racing callers observe the same value; fn
// runs at most once per successful initialization, and a failure
// resets the lock so a later call may retry.
func (l *OnceLock[T]) GetOrInit(ctx context.Context, fn func() (T, error)) (T, error) {
	err := l.once.Do(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		l.value = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return l.value, nil
}
