package link

import (
	"context"
	stdsync "sync"
)

// Result is the outcome of one command frame.
type Result struct {
	Err  error
	Code byte
	Data []byte
}

// Client matches reply frames to the commands that caused them.
// Replies carry the request sequence number in their first data byte;
// events and state changes are surfaced on channels instead of going
// through the reply matcher.
//
// Replies arrive in request order, so a reply that skips over older
// outstanding commands settles those commands with ErrNoReply.
type Client struct {
	link    *Link
	eventCh chan *Frame
	stateCh chan State

	lock    stdsync.Mutex
	pending []*Command
}

// Command is one in-flight command awaiting its reply.
type Command struct {
	seq      Seq
	resultCh chan Result
}

// RequestSeq returns the sequence number the request frame was
// stamped with.
func (c *Command) RequestSeq() Seq {
	return c.seq
}

// ResultChan returns the chan delivering the result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// NewClient creates a client and installs itself as the link's
// handler and notifier.
func NewClient(l *Link) *Client {
	c := &Client{
		link:    l,
		eventCh: make(chan *Frame, 1),
		stateCh: make(chan State, 1),
	}
	c.link.Handler = c
	c.link.Notifier = StateChangedFunc(func(ctx context.Context, state State) {
		c.stateCh <- state
	})
	return c
}

// Link gets the wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// StateChan retrieves the state reporting chan.
func (c *Client) StateChan() <-chan State {
	return c.stateCh
}

// EventChan retrieves the event reporting chan.
func (c *Client) EventChan() <-chan *Frame {
	return c.eventCh
}

// Do sends a command frame and returns a Command whose ResultChan
// delivers the reply. A send failure settles the Command immediately.
func (c *Client) Do(f *Frame) *Command {
	cmd := &Command{resultCh: make(chan Result, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.link.Send(f); err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	cmd.seq = f.Seq
	c.pending = append(c.pending, cmd)
	return cmd
}

// Call sends a command frame and waits for its result. A Result
// carrying an error is returned as that error.
func (c *Client) Call(ctx context.Context, f *Frame) (Result, error) {
	cmd := c.Do(f)
	select {
	case r := <-cmd.ResultChan():
		return r, r.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// HandleFrame implements FrameHandler.
func (c *Client) HandleFrame(ctx context.Context, f *Frame) {
	if f.IsEvent() {
		c.eventCh <- f
		return
	}
	if len(f.Data) == 0 {
		// invalid reply frame.
		return
	}
	seq := Seq(f.Data[0])
	if !seq.IsValid() {
		// invalid sequence.
		return
	}
	matched, skipped := c.take(seq)
	if matched == nil {
		return
	}
	for _, cmd := range skipped {
		cmd.resultCh <- Result{Err: ErrNoReply}
	}
	matched.resultCh <- replyResult(f)
}

// take removes the command matching seq from the pending queue,
// together with any older commands skipped over by the reply.
func (c *Client) take(seq Seq) (*Command, []*Command) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, cmd := range c.pending {
		if cmd.seq == seq {
			skipped := c.pending[:i]
			c.pending = c.pending[i+1:]
			return cmd, skipped
		}
	}
	return nil, nil
}

func replyResult(f *Frame) Result {
	if f.Cmd&1 != 0 {
		return Result{Err: &ReplyError{Code: f.Cmd & 0x7e}}
	}
	return Result{Code: f.Cmd & 0x7e, Data: f.Data[1:]}
}

// Run wraps Link.Run.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}
