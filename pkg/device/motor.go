package device

import (
	"context"

	"github.com/robotalks/brain.go/pkg/sync"
)

// BrakeMode selects what a motor does when its velocity target drops
// to zero.
type BrakeMode int32

// Brake modes.
const (
	BrakeCoast BrakeMode = iota
	BrakeBrake
	BrakeHold
)

// motorState is the last commanded state, kept so the motor can be
// re-commanded after a reconnect and reported without touching
// hardware.
type motorState struct {
	targetVelocity int32
	brakeMode      BrakeMode
}

// Motor is a smart motor bound to a port. Commands go to the hardware
// registers and are mirrored in a mutex-guarded shadow state shared
// by controlling tasks.
type Motor struct {
	port  SmartPort
	bus   Bus
	state *sync.Mutex[motorState]
}

// NewMotor binds a motor on port. A port reporting a different device
// class fails with ErrWrongDevice.
func NewMotor(ctx context.Context, r *Registry, port SmartPort) (*Motor, error) {
	m := &Motor{
		port:  port,
		bus:   r.Bus(),
		state: sync.NewMutex(motorState{}),
	}
	if !port.IsValid() {
		return nil, &PortError{Port: port, Err: ErrDisconnected}
	}
	if code, err := m.bus.ReadReg(port, RegDeviceType); err == nil &&
		code != DevCodeNone && code != DevCodeMotor {
		return nil, &PortError{Port: port, Err: ErrWrongDevice}
	}
	if err := r.Bind(ctx, port, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Type implements Device.
func (m *Motor) Type() Type {
	return TypeMotor
}

// Connected implements Device.
func (m *Motor) Connected() bool {
	_, err := m.bus.ReadReg(m.port, RegDeviceType)
	return err == nil
}

// Port returns the bound port.
func (m *Motor) Port() SmartPort {
	return m.port
}

// SetVelocity commands a target velocity in RPM.
func (m *Motor) SetVelocity(ctx context.Context, rpm int32) error {
	g, err := m.state.Lock(ctx)
	if err != nil {
		return err
	}
	defer g.Unlock()
	if err := m.bus.WriteReg(m.port, RegMotorTargetVelocity, rpm); err != nil {
		return &PortError{Port: m.port, Err: err}
	}
	g.Value().targetVelocity = rpm
	return nil
}

// TargetVelocity returns the last commanded velocity in RPM.
func (m *Motor) TargetVelocity(ctx context.Context) (int32, error) {
	g, err := m.state.Lock(ctx)
	if err != nil {
		return 0, err
	}
	defer g.Unlock()
	return g.Value().targetVelocity, nil
}

// Velocity reads the measured velocity in RPM.
func (m *Motor) Velocity(ctx context.Context) (int32, error) {
	v, err := m.bus.ReadReg(m.port, RegMotorVelocity)
	if err != nil {
		return 0, &PortError{Port: m.port, Err: err}
	}
	return v, nil
}

// Position reads the measured position in encoder ticks.
func (m *Motor) Position(ctx context.Context) (int32, error) {
	v, err := m.bus.ReadReg(m.port, RegMotorPosition)
	if err != nil {
		return 0, &PortError{Port: m.port, Err: err}
	}
	return v, nil
}

// SetBrakeMode selects the zero-velocity behavior.
func (m *Motor) SetBrakeMode(ctx context.Context, mode BrakeMode) error {
	g, err := m.state.Lock(ctx)
	if err != nil {
		return err
	}
	defer g.Unlock()
	if err := m.bus.WriteReg(m.port, RegMotorBrakeMode, int32(mode)); err != nil {
		return &PortError{Port: m.port, Err: err}
	}
	g.Value().brakeMode = mode
	return nil
}

// Stop commands zero velocity, applying the configured brake mode.
func (m *Motor) Stop(ctx context.Context) error {
	return m.SetVelocity(ctx, 0)
}
