package boot

import (
	"context"
	"fmt"
	"runtime"

	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/sched"
)

// PanicError is a captured task panic. Panics are fatal to the task
// and surface as an ordinary error from the scheduler.
type PanicError struct {
	Value interface{}
	Stack []byte
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Guard wraps a task body so a panic unwinds cleanly: the backtrace
// is logged, and the task exits with a PanicError instead of tearing
// down the process.
func Guard(fn sched.TaskFunc) sched.TaskFunc {
	return func(ctx context.Context) (err error) {
		defer func() {
			if v := recover(); v != nil {
				buf := make([]byte, 16384)
				buf = buf[:runtime.Stack(buf, false)]
				glog.Errorf("task panic: %v\n%s", v, buf)
				err = &PanicError{Value: v, Stack: buf}
			}
		}()
		return fn(ctx)
	}
}
