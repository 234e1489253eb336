package device

import "context"

// adiConfig values written to RegAdiConfig.
const (
	adiModeDigitalIn int32 = iota
	adiModeDigitalOut
	adiModeAnalogIn
)

type adiDevice struct {
	port AdiPort
	bus  Bus
	typ  Type
}

func bindAdi(ctx context.Context, r *Registry, port AdiPort, typ Type, mode int32) (*adiDevice, error) {
	d := &adiDevice{port: port, bus: r.Bus(), typ: typ}
	if err := d.bus.WriteAdi(port, RegAdiConfig, mode); err != nil {
		return nil, &AdiPortError{Port: port, Err: err}
	}
	if err := r.BindAdi(ctx, port, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Type implements Device.
func (d *adiDevice) Type() Type {
	return d.typ
}

// Connected implements Device.
func (d *adiDevice) Connected() bool {
	_, err := d.bus.ReadAdi(d.port, RegAdiConfig)
	return err == nil
}

// DigitalIn reads a digital level from a three-wire port.
type DigitalIn struct {
	*adiDevice
}

// NewDigitalIn binds a digital input on port.
func NewDigitalIn(ctx context.Context, r *Registry, port AdiPort) (*DigitalIn, error) {
	d, err := bindAdi(ctx, r, port, TypeDigitalIn, adiModeDigitalIn)
	if err != nil {
		return nil, err
	}
	return &DigitalIn{adiDevice: d}, nil
}

// Level reads the current logic level.
func (d *DigitalIn) Level() (bool, error) {
	v, err := d.bus.ReadAdi(d.port, RegAdiDigital)
	if err != nil {
		return false, &AdiPortError{Port: d.port, Err: err}
	}
	return v != 0, nil
}

// DigitalOut drives a digital level on a three-wire port.
type DigitalOut struct {
	*adiDevice
}

// NewDigitalOut binds a digital output on port.
func NewDigitalOut(ctx context.Context, r *Registry, port AdiPort) (*DigitalOut, error) {
	d, err := bindAdi(ctx, r, port, TypeDigitalOut, adiModeDigitalOut)
	if err != nil {
		return nil, err
	}
	return &DigitalOut{adiDevice: d}, nil
}

// SetLevel drives the output high or low.
func (d *DigitalOut) SetLevel(high bool) error {
	var v int32
	if high {
		v = 1
	}
	if err := d.bus.WriteAdi(d.port, RegAdiDigital, v); err != nil {
		return &AdiPortError{Port: d.port, Err: err}
	}
	return nil
}

// Solenoid is a pneumatic valve on a digital output.
type Solenoid struct {
	out *DigitalOut
}

// NewSolenoid binds a solenoid on port. The valve starts closed.
func NewSolenoid(ctx context.Context, r *Registry, port AdiPort) (*Solenoid, error) {
	d, err := bindAdi(ctx, r, port, TypeSolenoid, adiModeDigitalOut)
	if err != nil {
		return nil, err
	}
	return &Solenoid{out: &DigitalOut{adiDevice: d}}, nil
}

// Type implements Device.
func (s *Solenoid) Type() Type {
	return TypeSolenoid
}

// Connected implements Device.
func (s *Solenoid) Connected() bool {
	return s.out.Connected()
}

// Open opens the valve.
func (s *Solenoid) Open() error {
	return s.out.SetLevel(true)
}

// Close closes the valve.
func (s *Solenoid) Close() error {
	return s.out.SetLevel(false)
}

// LineTracker is an analog reflectivity sensor.
type LineTracker struct {
	*adiDevice
}

// NewLineTracker binds a line tracker on port.
func NewLineTracker(ctx context.Context, r *Registry, port AdiPort) (*LineTracker, error) {
	d, err := bindAdi(ctx, r, port, TypeLineTracker, adiModeAnalogIn)
	if err != nil {
		return nil, err
	}
	return &LineTracker{adiDevice: d}, nil
}

// Reflectivity reads the sensed reflectivity as a 12-bit raw value.
func (l *LineTracker) Reflectivity() (int32, error) {
	v, err := l.bus.ReadAdi(l.port, RegAdiAnalog)
	if err != nil {
		return 0, &AdiPortError{Port: l.port, Err: err}
	}
	return v, nil
}
