package device

import "context"

// Generic serial registers.
const (
	RegSerialBaud Reg = 0x20 + iota
	RegSerialRead
	RegSerialPeek
	RegSerialWrite
	RegSerialAvail
	RegSerialFree
	RegSerialFlush
)

// Serial limits.
const (
	// MaxBaudRate is the fastest rate user programs may configure.
	MaxBaudRate uint32 = 921600
	// DefaultBaudRate is used when the device table does not specify
	// one.
	DefaultBaudRate uint32 = 115200
	// SerialBufferSize is the length of the hardware FIFO input and
	// output buffers.
	SerialBufferSize = 1024
)

// SerialPort is a smart port configured as a generic serial device.
// The hardware owns the FIFO buffers; the port only moves single
// bytes through registers, so no locking is needed and any task may
// use it.
type SerialPort struct {
	port SmartPort
	bus  Bus
	baud uint32
}

// OpenSerialPort binds and configures a generic serial device on
// port. Unlike other devices, generic serial needs no specific
// hardware plugged in, so only the baud rate is validated.
func OpenSerialPort(ctx context.Context, r *Registry, port SmartPort, baud uint32) (*SerialPort, error) {
	if baud > MaxBaudRate {
		baud = MaxBaudRate
	}
	s := &SerialPort{port: port, bus: r.Bus(), baud: baud}
	if err := s.bus.WriteReg(port, RegSerialBaud, int32(baud)); err != nil {
		return nil, &PortError{Port: port, Err: err}
	}
	if err := r.Bind(ctx, port, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Type implements Device.
func (s *SerialPort) Type() Type {
	return TypeSerial
}

// Connected implements Device.
func (s *SerialPort) Connected() bool {
	_, err := s.bus.ReadReg(s.port, RegSerialAvail)
	return err == nil
}

// Baud returns the configured baud rate.
func (s *SerialPort) Baud() uint32 {
	return s.baud
}

// ReadByte pops the next byte from the input FIFO, reporting false
// when the buffer is empty.
func (s *SerialPort) ReadByte() (byte, bool, error) {
	v, err := s.bus.ReadReg(s.port, RegSerialRead)
	if err != nil {
		return 0, false, &PortError{Port: s.port, Err: err}
	}
	if v < 0 {
		return 0, false, nil
	}
	return byte(v), true, nil
}

// PeekByte returns the next byte of the input FIFO without removing
// it, reporting false when the buffer is empty.
func (s *SerialPort) PeekByte() (byte, bool, error) {
	v, err := s.bus.ReadReg(s.port, RegSerialPeek)
	if err != nil {
		return 0, false, &PortError{Port: s.port, Err: err}
	}
	if v < 0 {
		return 0, false, nil
	}
	return byte(v), true, nil
}

// WriteByte appends one byte to the output FIFO. A full FIFO fails
// with ErrBufferFull; check Free before large writes.
func (s *SerialPort) WriteByte(b byte) error {
	if err := s.bus.WriteReg(s.port, RegSerialWrite, int32(b)); err != nil {
		return &PortError{Port: s.port, Err: err}
	}
	return nil
}

// Avail reports how many bytes wait in the input FIFO.
func (s *SerialPort) Avail() (int, error) {
	v, err := s.bus.ReadReg(s.port, RegSerialAvail)
	if err != nil {
		return 0, &PortError{Port: s.port, Err: err}
	}
	return int(v), nil
}

// Free reports how many bytes of output FIFO space remain.
func (s *SerialPort) Free() (int, error) {
	v, err := s.bus.ReadReg(s.port, RegSerialFree)
	if err != nil {
		return 0, &PortError{Port: s.port, Err: err}
	}
	return int(v), nil
}

// ClearBuffers drops all pending input and output bytes. This is not
// a flush: nothing pending is transmitted, the FIFOs are simply
// emptied.
func (s *SerialPort) ClearBuffers() error {
	if err := s.bus.WriteReg(s.port, RegSerialFlush, 0); err != nil {
		return &PortError{Port: s.port, Err: err}
	}
	return nil
}

// Read implements io.Reader over the input FIFO. It never blocks: an
// empty FIFO yields (0, nil) so link drivers can poll between
// scheduler ticks.
func (s *SerialPort) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, ok, err := s.ReadByte()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write implements io.Writer over the output FIFO.
func (s *SerialPort) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := s.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
