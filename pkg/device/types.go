package device

// SmartPort is a 1-based smart port number.
type SmartPort int

// NumSmartPorts is the number of smart ports on the controller.
const NumSmartPorts = 21

// IsValid reports whether the port number exists on the controller.
func (p SmartPort) IsValid() bool {
	return p >= 1 && p <= NumSmartPorts
}

// AdiPort is a 1-based three-wire port number (A=1 .. H=8).
type AdiPort int

// NumAdiPorts is the number of three-wire ports on the controller.
const NumAdiPorts = 8

// IsValid reports whether the port number exists on the controller.
func (p AdiPort) IsValid() bool {
	return p >= 1 && p <= NumAdiPorts
}

// Type identifies what kind of device a port carries.
type Type string

// Device types for the fixed table.
const (
	TypeNone        Type = ""
	TypeMotor       Type = "motor"
	TypeSerial      Type = "serial"
	TypeDigitalIn   Type = "digital-in"
	TypeDigitalOut  Type = "digital-out"
	TypeSolenoid    Type = "solenoid"
	TypeLineTracker Type = "line-tracker"
)

// Device type codes reported by RegDeviceType. Zero means the port
// reports no class, which binds as anything.
const (
	DevCodeNone  int32 = 0
	DevCodeMotor int32 = 2
)

// Reg addresses a device register.
type Reg uint8

// Smart device registers.
const (
	RegDeviceType Reg = iota
	RegMotorVelocity
	RegMotorTargetVelocity
	RegMotorPosition
	RegMotorTargetPosition
	RegMotorVoltage
	RegMotorBrakeMode
	RegMotorTemperature
)

// ADI registers.
const (
	RegAdiConfig Reg = 0x40 + iota
	RegAdiDigital
	RegAdiAnalog
)

// Bus is register-level access to port hardware. Implementations must
// be callable from any task without locking: register access is a
// single word in and out, and the hardware serializes it. A Bus call
// on an empty port returns ErrDisconnected.
type Bus interface {
	ReadReg(port SmartPort, reg Reg) (int32, error)
	WriteReg(port SmartPort, reg Reg, val int32) error
	ReadAdi(port AdiPort, reg Reg) (int32, error)
	WriteAdi(port AdiPort, reg Reg, val int32) error
}

// Device is anything bound into the registry's port table.
type Device interface {
	// Type returns the device type.
	Type() Type
	// Connected probes the hardware connection state.
	Connected() bool
}
