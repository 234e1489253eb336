package link

import (
	"io"
	"time"
)

// Seq is a frame sequence number. Valid sequence numbers stay below
// the control-byte range so a parser can always tell one from the
// other.
type Seq byte

// NewSeq creates a randomized starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the following sequence number, wrapping inside the
// valid range.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= ctlFloor {
		n = 1
	}
	return Seq(n)
}

// IsValid reports whether s can appear on the wire as a sequence
// number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < ctlFloor
}

// MaxDataLen is the longest payload a single frame carries.
const MaxDataLen = 0x7f

// Frame is one unit of the coprocessor protocol. Cmd values with the
// high bit set are unsolicited events; the rest are commands or their
// replies.
type Frame struct {
	Seq  Seq
	Cmd  byte
	Data []byte
}

// IsEvent reports whether the frame is an unsolicited event rather
// than a command or reply.
func (f *Frame) IsEvent() bool {
	return f.Cmd&0x80 != 0
}

// WriteTo encodes the frame onto the wire.
func (f *Frame) WriteTo(w io.Writer) (int, error) {
	if len(f.Data) > MaxDataLen {
		return 0, ErrFrameTooLong
	}
	head := []byte{byte(f.Seq), f.Cmd, byte(len(f.Data))}
	n, err := w.Write(head)
	if err != nil {
		return n, err
	}
	if len(f.Data) > 0 {
		n1, err := w.Write(f.Data)
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
