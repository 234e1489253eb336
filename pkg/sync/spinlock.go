package sync

import (
	"runtime"
	"sync/atomic"
)

// spinLock guards a primitive's state word and wait list. Critical
// sections are a handful of pointer updates, so spinning is cheaper
// than parking; contention is rare under a cooperative scheduler.
type spinLock struct {
	state uint32
}

func (l *spinLock) lock() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		runtime.Gosched()
	}
}

func (l *spinLock) unlock() {
	atomic.StoreUint32(&l.state, 0)
}
