package device

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected indicates no device is plugged into the port.
	ErrDisconnected = errors.New("device disconnected")
	// ErrWrongDevice indicates the plugged device is not the
	// configured type.
	ErrWrongDevice = errors.New("wrong device type")
	// ErrPortTaken indicates the port is already bound to a device.
	ErrPortTaken = errors.New("port already bound")
	// ErrBufferFull indicates a serial output FIFO has no free space.
	ErrBufferFull = errors.New("serial buffer full")
)

// PortError reports a connection-state failure on a port.
type PortError struct {
	Port SmartPort
	Err  error
}

// Error implements error.
func (e *PortError) Error() string {
	return fmt.Sprintf("port %d: %v", e.Port, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PortError) Unwrap() error {
	return e.Err
}

// AdiPortError reports a connection-state failure on an ADI port.
type AdiPortError struct {
	Port AdiPort
	Err  error
}

// Error implements error.
func (e *AdiPortError) Error() string {
	return fmt.Sprintf("adi port %c: %v", 'A'+int(e.Port)-1, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *AdiPortError) Unwrap() error {
	return e.Err
}
