package device

import stdsync "sync"

// serialFIFO is a bounded byte FIFO backing one direction of a
// simulated serial port.
type serialFIFO struct {
	buffer [SerialBufferSize]byte
	count  int
	rIndex int
	wIndex int
}

func (f *serialFIFO) push(b byte) bool {
	if f.count == SerialBufferSize {
		return false
	}
	f.buffer[f.wIndex] = b
	f.wIndex = (f.wIndex + 1) & (SerialBufferSize - 1)
	f.count++
	return true
}

func (f *serialFIFO) pop() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	b := f.buffer[f.rIndex]
	f.rIndex = (f.rIndex + 1) & (SerialBufferSize - 1)
	f.count--
	return b, true
}

func (f *serialFIFO) peek() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	return f.buffer[f.rIndex], true
}

func (f *serialFIFO) clear() {
	f.count, f.rIndex, f.wIndex = 0, 0, 0
}

type memPort struct {
	connected bool
	regs      map[Reg]int32
	in        serialFIFO
	out       serialFIFO
}

// MemBus is an in-memory Bus for simulation and tests. Every port
// starts connected; Disconnect simulates unplugging the hardware.
//
// Serial ports loop through real FIFO buffers: bytes written to
// RegSerialWrite land in the out FIFO, and FeedSerial/DrainSerial
// move bytes across the simulated wire.
type MemBus struct {
	lk    stdsync.Mutex
	smart [NumSmartPorts + 1]memPort
	adi   [NumAdiPorts + 1]memPort
}

// NewMemBus creates a MemBus with all ports connected.
func NewMemBus() *MemBus {
	b := &MemBus{}
	for i := range b.smart {
		b.smart[i].connected = true
		b.smart[i].regs = map[Reg]int32{}
	}
	for i := range b.adi {
		b.adi[i].connected = true
		b.adi[i].regs = map[Reg]int32{}
	}
	return b
}

// Disconnect simulates unplugging the device on a smart port.
func (b *MemBus) Disconnect(port SmartPort) {
	b.lk.Lock()
	b.smart[port].connected = false
	b.lk.Unlock()
}

// Reconnect simulates plugging the device back in.
func (b *MemBus) Reconnect(port SmartPort) {
	b.lk.Lock()
	b.smart[port].connected = true
	b.lk.Unlock()
}

// DisconnectAdi simulates unplugging the device on a three-wire port.
func (b *MemBus) DisconnectAdi(port AdiPort) {
	b.lk.Lock()
	b.adi[port].connected = false
	b.lk.Unlock()
}

// ReconnectAdi simulates plugging the device back in.
func (b *MemBus) ReconnectAdi(port AdiPort) {
	b.lk.Lock()
	b.adi[port].connected = true
	b.lk.Unlock()
}

// SetReg seeds a register value, bypassing connection checks.
func (b *MemBus) SetReg(port SmartPort, reg Reg, val int32) {
	b.lk.Lock()
	b.smart[port].regs[reg] = val
	b.lk.Unlock()
}

// SetAdi seeds an ADI register value, bypassing connection checks.
func (b *MemBus) SetAdi(port AdiPort, reg Reg, val int32) {
	b.lk.Lock()
	b.adi[port].regs[reg] = val
	b.lk.Unlock()
}

// FeedSerial injects bytes into a serial port's input FIFO, as if the
// peer transmitted them. It returns the number of bytes accepted.
func (b *MemBus) FeedSerial(port SmartPort, p []byte) int {
	b.lk.Lock()
	defer b.lk.Unlock()
	n := 0
	for _, c := range p {
		if !b.smart[port].in.push(c) {
			break
		}
		n++
	}
	return n
}

// DrainSerial removes and returns every byte of a serial port's
// output FIFO, as if the wire transmitted them.
func (b *MemBus) DrainSerial(port SmartPort) []byte {
	b.lk.Lock()
	defer b.lk.Unlock()
	var p []byte
	for {
		c, ok := b.smart[port].out.pop()
		if !ok {
			return p
		}
		p = append(p, c)
	}
}

// ReadReg implements Bus.
func (b *MemBus) ReadReg(port SmartPort, reg Reg) (int32, error) {
	if !port.IsValid() {
		return 0, ErrDisconnected
	}
	b.lk.Lock()
	defer b.lk.Unlock()
	mp := &b.smart[port]
	if !mp.connected {
		return 0, ErrDisconnected
	}
	switch reg {
	case RegSerialRead:
		if c, ok := mp.in.pop(); ok {
			return int32(c), nil
		}
		return -1, nil
	case RegSerialPeek:
		if c, ok := mp.in.peek(); ok {
			return int32(c), nil
		}
		return -1, nil
	case RegSerialAvail:
		return int32(mp.in.count), nil
	case RegSerialFree:
		return int32(SerialBufferSize - mp.out.count), nil
	}
	return mp.regs[reg], nil
}

// WriteReg implements Bus.
func (b *MemBus) WriteReg(port SmartPort, reg Reg, val int32) error {
	if !port.IsValid() {
		return ErrDisconnected
	}
	b.lk.Lock()
	defer b.lk.Unlock()
	mp := &b.smart[port]
	if !mp.connected {
		return ErrDisconnected
	}
	switch reg {
	case RegSerialWrite:
		if !mp.out.push(byte(val)) {
			return ErrBufferFull
		}
		return nil
	case RegSerialFlush:
		mp.in.clear()
		mp.out.clear()
		return nil
	}
	mp.regs[reg] = val
	return nil
}

// ReadAdi implements Bus.
func (b *MemBus) ReadAdi(port AdiPort, reg Reg) (int32, error) {
	if !port.IsValid() {
		return 0, ErrDisconnected
	}
	b.lk.Lock()
	defer b.lk.Unlock()
	mp := &b.adi[port]
	if !mp.connected {
		return 0, ErrDisconnected
	}
	return mp.regs[reg], nil
}

// WriteAdi implements Bus.
func (b *MemBus) WriteAdi(port AdiPort, reg Reg, val int32) error {
	if !port.IsValid() {
		return ErrDisconnected
	}
	b.lk.Lock()
	defer b.lk.Unlock()
	mp := &b.adi[port]
	if !mp.connected {
		return ErrDisconnected
	}
	mp.regs[reg] = val
	return nil
}
