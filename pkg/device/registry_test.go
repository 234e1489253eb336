package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/device"
)

func TestRegistryBind(t *testing.T) {
	ctx := context.Background()
	r := device.NewRegistry(device.NewMemBus())

	m, err := device.NewMotor(ctx, r, 1)
	require.NoError(t, err)

	dev, err := r.Device(ctx, 1)
	require.NoError(t, err)
	require.Same(t, device.Device(m), dev)

	dev, err = r.Device(ctx, 2)
	require.NoError(t, err)
	require.Nil(t, dev)
}

func TestRegistryPortTaken(t *testing.T) {
	ctx := context.Background()
	r := device.NewRegistry(device.NewMemBus())

	_, err := device.NewMotor(ctx, r, 1)
	require.NoError(t, err)

	_, err = device.OpenSerialPort(ctx, r, 1, 0)
	require.ErrorIs(t, err, device.ErrPortTaken)
	var pe *device.PortError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, device.SmartPort(1), pe.Port)
}

func TestRegistryInvalidPort(t *testing.T) {
	ctx := context.Background()
	r := device.NewRegistry(device.NewMemBus())

	_, err := device.NewMotor(ctx, r, 0)
	require.ErrorIs(t, err, device.ErrDisconnected)
	_, err = device.NewMotor(ctx, r, device.NumSmartPorts+1)
	require.ErrorIs(t, err, device.ErrDisconnected)
	_, err = r.Device(ctx, -1)
	require.ErrorIs(t, err, device.ErrDisconnected)
}

func TestRegistrySnapshot(t *testing.T) {
	ctx := context.Background()
	bus := device.NewMemBus()
	r := device.NewRegistry(bus)

	_, err := device.NewMotor(ctx, r, 3)
	require.NoError(t, err)
	_, err = device.OpenSerialPort(ctx, r, 7, 0)
	require.NoError(t, err)
	_, err = device.NewDigitalIn(ctx, r, 1)
	require.NoError(t, err)

	bus.Disconnect(3)

	records, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, []device.PortRecord{
		{Port: 3, Type: device.TypeMotor},
		{Port: 7, Type: device.TypeSerial, Connected: true},
		{Port: 1, Adi: true, Type: device.TypeDigitalIn, Connected: true},
	}, records)
}

func TestAdiPortErrorNamesPort(t *testing.T) {
	err := &device.AdiPortError{Port: 2, Err: device.ErrDisconnected}
	require.Equal(t, "adi port B: device disconnected", err.Error())
	require.True(t, errors.Is(err, device.ErrDisconnected))
}
