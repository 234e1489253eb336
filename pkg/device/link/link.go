package link

import (
	"context"
	"io"
	"os"
	stdsync "sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/sched"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// StateNotifier is called when the link state changed.
type StateNotifier interface {
	StateChanged(context.Context, State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state State) {
	f(ctx, state)
}

// Link exchanges frames over a byte stream. The reader may be
// non-blocking in the serial-port style, returning 0 bytes when
// nothing is buffered; Run yields to the cooperative scheduler
// between polls in that case.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    FrameHandler
	Notifier   StateNotifier
	Timeout    time.Duration

	seq   Seq
	state State
	lock  stdsync.RWMutex

	deadline time.Time
	parser   Parser
}

// NewLink creates a Link over rw.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    100 * time.Millisecond,
		seq:        NewSeq(),
	}
}

// State gets the link state.
func (l *Link) State() State {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.state
}

// Send sends a frame, stamping it with the next sequence number.
func (l *Link) Send(f *Frame) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return ErrNotReady
	}
	f.Seq = l.seq
	if _, err := f.WriteTo(l.ReadWriter); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Run drives the link until ctx is cancelled.
func (l *Link) Run(ctx context.Context) error {
	if err := l.apply(ctx, l.parser.Reset()); err != nil {
		return err
	}
	buf := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := l.ReadWriter.Read(buf)
		switch {
		case err != nil && os.IsTimeout(err):
			err = l.apply(ctx, l.parser.Timeout())
		case err != nil:
			return err
		case n == 0:
			if !l.deadline.IsZero() && time.Now().After(l.deadline) {
				err = l.apply(ctx, l.parser.Timeout())
			} else {
				sched.Yield(ctx)
			}
		default:
			err = l.apply(ctx, l.parser.Feed(buf[0]))
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) apply(ctx context.Context, st Step) (err error) {
	var notifier StateNotifier
	l.lock.Lock()
	if l.state != st.State {
		l.state = st.State
		notifier = l.Notifier
		glog.V(4).Infof("link state %#02x", st.State)
	}
	if st.Ctl != 0 {
		_, err = l.ReadWriter.Write([]byte{st.Ctl, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return
	}

	if st.Ctl == ctlREQ {
		l.deadline = time.Now().Add(l.Timeout)
	} else {
		l.deadline = time.Time{}
	}

	if notifier != nil {
		notifier.StateChanged(ctx, st.State)
	}
	if st.Frame != nil {
		if h := l.Handler; h != nil {
			h.HandleFrame(ctx, st.Frame)
		}
	}
	return
}
