package sync

// waiter records one suspended task on a primitive's wait list. The
// ready channel is the task's resumption handle: it is closed exactly
// once, by the operation that commits the awaited resource to the task.
// A waiter is linked at suspension and unlinked exactly once, either by
// the waking operation or by cancellation.
type waiter struct {
	ready chan struct{}
	next  *waiter

	// write marks a waiter queued for exclusive access on an RwLock.
	write bool
}

func newWaiter() *waiter {
	return &waiter{ready: make(chan struct{})}
}

func (w *waiter) wake() {
	close(w.ready)
}

// waitList is an intrusive FIFO list of waiters. It never allocates;
// waiters are linked through their own next pointers.
type waitList struct {
	head *waiter
	tail *waiter
}

func (l *waitList) push(w *waiter) {
	if l.head == nil {
		l.head = w
	} else {
		l.tail.next = w
	}
	l.tail = w
}

func (l *waitList) pop() *waiter {
	w := l.head
	if w == nil {
		return nil
	}
	l.head = w.next
	if l.head == nil {
		l.tail = nil
	}
	w.next = nil
	return w
}

// remove unlinks w and reports whether it was still queued. A false
// return means a wakeup already claimed w.
func (l *waitList) remove(w *waiter) bool {
	var prev *waiter
	for cur := l.head; cur != nil; cur = cur.next {
		if cur != w {
			prev = cur
			continue
		}
		if prev == nil {
			l.head = cur.next
		} else {
			prev.next = cur.next
		}
		if l.tail == cur {
			l.tail = prev
		}
		cur.next = nil
		return true
	}
	return false
}
