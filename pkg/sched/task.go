package sched

import (
	"context"

	"github.com/golang/glog"
)

// TaskFunc is the body of a task. The context carries the scheduler's
// Parker and is cancelled when the scheduler is asked to stop.
type TaskFunc func(ctx context.Context) error

// Task is one cooperatively scheduled unit of work.
type Task struct {
	s    *Scheduler
	name string
	fn   TaskFunc

	// grant delivers the run token to the task goroutine.
	grant chan struct{}
	next  *Task
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Park implements sync.Parker. The task gives the run token back to
// the scheduler, blocks until its waiter is woken or the context
// ends, then re-enters the ready queue and waits to be granted the
// token again before user code resumes.
func (t *Task) Park(ctx context.Context, ready <-chan struct{}) error {
	glog.V(4).Infof("Task[%s] parked", t.name)
	t.s.yieldToken()
	defer t.s.reacquire(t)
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) run() {
	<-t.grant
	ctx := t.s.taskCtx(t)
	glog.V(4).Infof("Task[%s] started", t.name)
	err := t.fn(ctx)
	if err != nil && err != context.Canceled {
		t.s.fail(&TaskError{Task: t.name, Err: err})
	}
	glog.V(4).Infof("Task[%s] stopped", t.name)
	t.s.exit(t)
}

var taskCtxKey = &Task{}

// Current returns the task running under the calling context, or nil
// when the code is not running on a scheduler.
func Current(ctx context.Context) *Task {
	t, _ := ctx.Value(taskCtxKey).(*Task)
	return t
}

// Yield voluntarily hands the token back, letting every other ready
// task run before the caller resumes. Outside a scheduler it is a
// no-op.
func Yield(ctx context.Context) {
	t := Current(ctx)
	if t == nil {
		return
	}
	t.s.yieldToken()
	t.s.reacquire(t)
}

// taskList is an intrusive FIFO of tasks awaiting the run token.
type taskList struct {
	head *Task
	tail *Task
}

func (l *taskList) push(t *Task) {
	if l.head == nil {
		l.head = t
	} else {
		l.tail.next = t
	}
	l.tail = t
}

func (l *taskList) pop() *Task {
	t := l.head
	if t == nil {
		return nil
	}
	l.head = t.next
	if l.head == nil {
		l.tail = nil
	}
	t.next = nil
	return t
}
