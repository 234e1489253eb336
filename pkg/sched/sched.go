package sched

import (
	"context"
	stdsync "sync"

	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/sync"
)

// Scheduler dispatches the run token among its tasks in FIFO order.
// It owns no policy beyond that: priorities, deadlines and fairness
// across devices belong to the tasks themselves.
type Scheduler struct {
	lk      stdsync.Mutex
	ready   taskList
	live    int
	runCtx  context.Context
	started bool

	wakeCh  chan struct{}
	yieldCh chan struct{}

	errLk stdsync.Mutex
	errs  AggregatedError
}

// New creates a Scheduler.
func New() *Scheduler {
	return &Scheduler{
		wakeCh:  make(chan struct{}, 1),
		yieldCh: make(chan struct{}),
	}
}

// Spawn adds a task. Tasks may be spawned before Run or by a running
// task; either way the new task joins the tail of the ready queue.
func (s *Scheduler) Spawn(name string, fn TaskFunc) *Task {
	t := &Task{s: s, name: name, fn: fn, grant: make(chan struct{})}
	s.lk.Lock()
	s.live++
	s.ready.push(t)
	s.lk.Unlock()
	s.kick()
	go t.run()
	glog.V(4).Infof("Task[%s] spawned", name)
	return t
}

// Run dispatches tasks until every task has exited. Cancelling ctx
// propagates into each task's context, so parked tasks resume with
// the context error and can unwind. Run returns the aggregation of
// non-cancellation task errors.
func (s *Scheduler) Run(ctx context.Context) error {
	s.lk.Lock()
	if s.started {
		s.lk.Unlock()
		panic("sched: Scheduler started twice")
	}
	s.started = true
	s.runCtx = ctx
	s.lk.Unlock()

	for {
		t := s.next(ctx)
		if t == nil {
			break
		}
		t.grant <- struct{}{}
		<-s.yieldCh
	}
	return s.errs.Aggregate()
}

// next returns the task to grant the token to, blocking while every
// live task is parked. It returns nil once no tasks remain.
func (s *Scheduler) next(ctx context.Context) *Task {
	for {
		s.lk.Lock()
		t := s.ready.pop()
		live := s.live
		s.lk.Unlock()
		if t != nil {
			return t
		}
		if live == 0 {
			return nil
		}
		if ctx.Err() != nil {
			// Parked tasks observe the cancellation and re-enter the
			// ready queue to unwind.
			<-s.wakeCh
			continue
		}
		select {
		case <-s.wakeCh:
		case <-ctx.Done():
		}
	}
}

// taskCtx builds the context a task body runs with: the run context
// plus the task identity and the scheduler's Parker.
func (s *Scheduler) taskCtx(t *Task) context.Context {
	s.lk.Lock()
	ctx := s.runCtx
	s.lk.Unlock()
	ctx = context.WithValue(ctx, taskCtxKey, t)
	return sync.WithParker(ctx, t)
}

// yieldToken returns the run token to the dispatcher.
func (s *Scheduler) yieldToken() {
	s.yieldCh <- struct{}{}
}

// reacquire queues t and blocks until the dispatcher grants the token
// back.
func (s *Scheduler) reacquire(t *Task) {
	s.lk.Lock()
	s.ready.push(t)
	s.lk.Unlock()
	s.kick()
	<-t.grant
}

func (s *Scheduler) exit(t *Task) {
	s.lk.Lock()
	s.live--
	s.lk.Unlock()
	s.yieldCh <- struct{}{}
}

func (s *Scheduler) fail(err error) {
	s.errLk.Lock()
	s.errs.Add(err)
	s.errLk.Unlock()
}

func (s *Scheduler) kick() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}
