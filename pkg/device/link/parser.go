package link

// Control bytes. Anything at or above ctlFloor is never a sequence
// number.
const (
	ctlFloor byte = 0xf0
	ctlREQ   byte = 0xff // demand a resync
	ctlACK   byte = 0xfe // answer a resync demand
)

// State describes the link from the parser's point of view.
type State int

// Link states.
const (
	// StateSyncing means the handshake has not completed.
	StateSyncing State = 0
	// StateReady means frames may be sent and received.
	StateReady State = 0x01
	// StateReceiving means the parser is inside a handshake or frame.
	StateReceiving State = 0x02
)

// IsReady reports whether frames may be exchanged.
func (s State) IsReady() bool {
	return s&StateReady != 0
}

// IsReceiving reports whether the parser is mid-handshake or
// mid-frame.
func (s State) IsReceiving() bool {
	return s&StateReceiving != 0
}

type parseState int

const (
	stateHandshake parseState = iota // waiting for REQ or ACK
	stateReqSeq                      // REQ seen, waiting for peer seq
	stateAckSeq                      // ACK seen, waiting for peer seq
	stateSeq                         // between frames
	stateCmd                         // inside a frame, next byte is cmd
	stateLen                         // inside a frame, next byte is length
	stateData                        // inside a frame, reading payload
)

// Step is the outcome of feeding the parser one byte or one timeout.
type Step struct {
	// Ctl, when non-zero, must be written to the peer followed by the
	// local sequence number.
	Ctl byte
	// State is the link state after the step.
	State State
	// Frame is a completed frame, if any.
	Frame *Frame
}

// Parser decodes the peer's byte stream one byte at a time. It keeps
// no buffers beyond the frame under construction, so a corrupted
// stream costs at most one resync round trip.
type Parser struct {
	peerSeq Seq
	state   parseState
	frame   *Frame
	got     int
}

// Reset abandons any progress and demands a resync.
func (p *Parser) Reset() (st Step) {
	p.frame = nil
	st.Ctl = p.resync()
	st.State = p.State()
	return
}

// Timeout notifies the parser that the peer went quiet mid-sequence.
func (p *Parser) Timeout() (st Step) {
	if p.state != stateSeq {
		st.Ctl = p.resync()
	}
	st.State = p.State()
	return
}

// Feed consumes one byte from the wire.
func (p *Parser) Feed(b byte) (st Step) {
	st.Ctl, st.Frame = p.feed(b)
	st.State = p.State()
	return
}

// State reports the current link state.
func (p *Parser) State() State {
	switch {
	case p.state == stateHandshake:
		return StateSyncing
	case p.state == stateSeq:
		return StateReady
	case p.state > stateSeq:
		return StateReady | StateReceiving
	}
	return StateSyncing | StateReceiving
}

func (p *Parser) feed(b byte) (ctl byte, frame *Frame) {
	switch p.state {
	case stateHandshake:
		switch b {
		case ctlREQ:
			p.state = stateReqSeq
		case ctlACK:
			p.state = stateAckSeq
		}
	case stateReqSeq:
		if seq := Seq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateSeq
			return ctlACK, nil
		}
		return p.resync(), nil
	case stateAckSeq:
		if seq := Seq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateSeq
			return 0, nil
		}
		return p.resync(), nil
	case stateSeq:
		switch {
		case b == ctlREQ:
			p.state = stateReqSeq
		case b == ctlACK:
			// Redundant resync answer; the seq byte follows.
			p.state = stateAckSeq
		case b == byte(p.peerSeq):
			p.frame = &Frame{Seq: p.peerSeq}
			p.peerSeq = p.peerSeq.Next()
			p.state = stateCmd
		default:
			return p.resync(), nil
		}
	case stateCmd:
		p.frame.Cmd = b
		p.state = stateLen
	case stateLen:
		if b > MaxDataLen {
			return p.resync(), nil
		}
		if b == 0 {
			return 0, p.done()
		}
		p.frame.Data, p.got = make([]byte, b), 0
		p.state = stateData
	case stateData:
		p.frame.Data[p.got] = b
		p.got++
		if p.got == len(p.frame.Data) {
			return 0, p.done()
		}
	}
	return 0, nil
}

func (p *Parser) resync() byte {
	p.state = stateHandshake
	return ctlREQ
}

func (p *Parser) done() *Frame {
	p.state = stateSeq
	frame := p.frame
	p.frame = nil
	return frame
}
