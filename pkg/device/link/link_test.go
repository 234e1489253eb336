package link

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testStream struct {
	t       *testing.T
	byteCh  chan byte
	writeCh chan byte
}

func newTestStream(t *testing.T) *testStream {
	return &testStream{
		t:       t,
		byteCh:  make(chan byte, 64),
		writeCh: make(chan byte, 64),
	}
}

func (s *testStream) Read(p []byte) (int, error) {
	require.Len(s.t, p, 1)
	b, ok := <-s.byteCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (s *testStream) Write(p []byte) (int, error) {
	for _, b := range p {
		s.writeCh <- b
	}
	return len(p), nil
}

func (s *testStream) inject(p ...byte) {
	for _, b := range p {
		s.byteCh <- b
	}
}

func (s *testStream) expectWritten(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		select {
		case out[i] = <-s.writeCh:
		case <-time.After(500 * time.Millisecond):
			s.t.Fatal("expect written bytes timeout")
		}
	}
	return out
}

type linkTestCtx struct {
	t       *testing.T
	stream  *testStream
	link    *Link
	frameCh chan *Frame
	stateCh chan State
	doneCh  chan error
	peerSeq Seq
	ourSeq  Seq
}

func startLink(t *testing.T) *linkTestCtx {
	c := &linkTestCtx{
		t:       t,
		stream:  newTestStream(t),
		frameCh: make(chan *Frame, 4),
		stateCh: make(chan State, 4),
		doneCh:  make(chan error, 1),
		peerSeq: 5,
	}
	c.link = NewLink(c.stream)
	c.link.Handler = HandleFrameFunc(func(_ context.Context, f *Frame) {
		c.frameCh <- f
	})
	c.link.Notifier = StateChangedFunc(func(_ context.Context, s State) {
		c.stateCh <- s
	})
	go func() {
		c.doneCh <- c.link.Run(context.Background())
	}()
	return c
}

// handshake answers the link's initial resync demand.
func (c *linkTestCtx) handshake() *linkTestCtx {
	req := c.stream.expectWritten(2)
	require.Equal(c.t, ctlREQ, req[0])
	c.ourSeq = Seq(req[1])
	require.True(c.t, c.ourSeq.IsValid())
	c.stream.inject(ctlACK, byte(c.peerSeq))
	c.expectState(StateSyncing | StateReceiving)
	c.expectState(StateReady)
	return c
}

func (c *linkTestCtx) expectState(expected State) {
	select {
	case s := <-c.stateCh:
		require.Equal(c.t, expected, s)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("expect state change timeout")
	}
}

func (c *linkTestCtx) expectFrame(expected *Frame) {
	select {
	case f := <-c.frameCh:
		require.Equal(c.t, expected, f)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("expect frame timeout")
	}
}

func (c *linkTestCtx) injectFrame(cmd byte, data ...byte) *Frame {
	f := &Frame{Seq: c.peerSeq, Cmd: cmd}
	if len(data) > 0 {
		f.Data = data
	}
	c.stream.inject(append([]byte{byte(c.peerSeq), cmd, byte(len(data))}, data...)...)
	c.peerSeq = c.peerSeq.Next()
	return f
}

func (c *linkTestCtx) close() {
	close(c.stream.byteCh)
	select {
	case err := <-c.doneCh:
		require.Equal(c.t, io.EOF, err)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("expect run exit timeout")
	}
}

func TestLinkHandshakeAndReceive(t *testing.T) {
	c := startLink(t).handshake()
	defer c.close()

	c.expectFrame(c.injectFrame(0x84, 9))
	c.expectFrame(c.injectFrame(0x02))
}

func TestLinkSend(t *testing.T) {
	c := startLink(t).handshake()
	defer c.close()

	require.NoError(t, c.link.Send(&Frame{Cmd: 0x04, Data: []byte{1, 2}}))
	require.Equal(t, []byte{byte(c.ourSeq), 0x04, 2, 1, 2}, c.stream.expectWritten(5))
	require.NoError(t, c.link.Send(&Frame{Cmd: 0x06}))
	require.Equal(t, []byte{byte(c.ourSeq.Next()), 0x06, 0}, c.stream.expectWritten(3))
}

func TestLinkSendNotReady(t *testing.T) {
	l := NewLink(newTestStream(t))
	require.Equal(t, ErrNotReady, l.Send(&Frame{Cmd: 0x04}))
}

func TestLinkResyncAfterBadSeq(t *testing.T) {
	c := startLink(t).handshake()
	defer c.close()

	c.stream.inject(0x77) // not the expected peer seq
	req := c.stream.expectWritten(2)
	require.Equal(t, ctlREQ, req[0])
	c.expectState(StateSyncing)

	c.stream.inject(ctlACK, byte(c.peerSeq))
	c.expectState(StateSyncing | StateReceiving)
	c.expectState(StateReady)
	c.expectFrame(c.injectFrame(0x02))
}

func startClient(t *testing.T) (*linkTestCtx, *Client) {
	c := &linkTestCtx{
		t:       t,
		stream:  newTestStream(t),
		doneCh:  make(chan error, 1),
		peerSeq: 5,
	}
	c.link = NewLink(c.stream)
	client := NewClient(c.link)
	c.stateCh = make(chan State, 4)
	go func() {
		for s := range client.StateChan() {
			c.stateCh <- s
		}
	}()
	go func() {
		c.doneCh <- client.Run(context.Background())
	}()
	c.handshake()
	return c, client
}

func (c *linkTestCtx) injectReply(reqSeq Seq, cmd byte, data ...byte) {
	c.injectFrame(cmd, append([]byte{byte(reqSeq)}, data...)...)
}

func expectResult(t *testing.T, cmd *Command, expected Result) {
	select {
	case r := <-cmd.ResultChan():
		require.Equal(t, expected, r)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expect result timeout")
	}
}

func TestClientDo(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	cmd := client.Do(&Frame{Cmd: 0x04, Data: []byte{1}})
	req := c.stream.expectWritten(4)
	require.Equal(t, Seq(req[0]), cmd.RequestSeq())

	c.injectReply(cmd.RequestSeq(), 0x02, 42)
	expectResult(t, cmd, Result{Code: 0x02, Data: []byte{42}})
}

func TestClientReplyError(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	cmd := client.Do(&Frame{Cmd: 0x04})
	c.stream.expectWritten(3)

	c.injectReply(cmd.RequestSeq(), 0x07)
	expectResult(t, cmd, Result{Err: &ReplyError{Code: 0x06}})
}

func TestClientNoReply(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	first := client.Do(&Frame{Cmd: 0x04})
	c.stream.expectWritten(3)
	second := client.Do(&Frame{Cmd: 0x04})
	c.stream.expectWritten(3)

	c.injectReply(second.RequestSeq(), 0x02)
	expectResult(t, first, Result{Err: ErrNoReply})
	expectResult(t, second, Result{Code: 0x02, Data: []byte{}})
}

func TestClientCall(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	type callRet struct {
		r   Result
		err error
	}
	retCh := make(chan callRet, 1)
	go func() {
		r, err := client.Call(context.Background(), &Frame{Cmd: 0x04})
		retCh <- callRet{r, err}
	}()

	req := c.stream.expectWritten(3)
	c.injectReply(Seq(req[0]), 0x02, 7)
	select {
	case ret := <-retCh:
		require.NoError(t, ret.err)
		require.Equal(t, Result{Code: 0x02, Data: []byte{7}}, ret.r)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expect call return timeout")
	}
}

func TestClientCallCancelled(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Call(ctx, &Frame{Cmd: 0x04})
	require.ErrorIs(t, err, context.Canceled)
	c.stream.expectWritten(3)
}

func TestClientEvent(t *testing.T) {
	c, client := startClient(t)
	defer c.close()

	f := c.injectFrame(0x84, 9)
	select {
	case got := <-client.EventChan():
		require.Equal(t, f, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expect event timeout")
	}
}
