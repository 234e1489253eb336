package device_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/device"
)

func openSerial(t *testing.T, baud uint32) (*device.MemBus, *device.SerialPort) {
	bus := device.NewMemBus()
	s, err := device.OpenSerialPort(context.Background(), device.NewRegistry(bus), 10, baud)
	require.NoError(t, err)
	return bus, s
}

func TestSerialWrite(t *testing.T) {
	bus, s := openSerial(t, 0)

	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), bus.DrainSerial(10))
	require.Nil(t, bus.DrainSerial(10))
}

func TestSerialRead(t *testing.T) {
	bus, s := openSerial(t, 0)

	avail, err := s.Avail()
	require.NoError(t, err)
	require.Zero(t, avail)

	_, ok, err := s.ReadByte()
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 3, bus.FeedSerial(10, []byte{1, 2, 3}))
	avail, err = s.Avail()
	require.NoError(t, err)
	require.Equal(t, 3, avail)

	b, ok, err := s.PeekByte()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte(1), b)

	// peek does not consume
	b, ok, err = s.ReadByte()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte(1), b)

	p := make([]byte, 8)
	n, err := s.Read(p)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{2, 3}, p[:n])

	// an empty FIFO never blocks the reader
	n, err = s.Read(p)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSerialBufferLimits(t *testing.T) {
	bus, s := openSerial(t, 0)

	free, err := s.Free()
	require.NoError(t, err)
	require.Equal(t, device.SerialBufferSize, free)

	big := make([]byte, device.SerialBufferSize+10)
	require.Equal(t, device.SerialBufferSize, bus.FeedSerial(10, big))

	n, err := s.Write(big[:device.SerialBufferSize])
	require.NoError(t, err)
	require.Equal(t, device.SerialBufferSize, n)
	free, err = s.Free()
	require.NoError(t, err)
	require.Zero(t, free)

	// a full output FIFO rejects further bytes instead of dropping them
	err = s.WriteByte(0xff)
	require.ErrorIs(t, err, device.ErrBufferFull)
	var pe *device.PortError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, device.SmartPort(10), pe.Port)

	require.NoError(t, s.ClearBuffers())
	avail, err := s.Avail()
	require.NoError(t, err)
	require.Zero(t, avail)
	free, err = s.Free()
	require.NoError(t, err)
	require.Equal(t, device.SerialBufferSize, free)
}

func TestSerialBaudClamp(t *testing.T) {
	_, s := openSerial(t, 2000000)
	require.Equal(t, device.MaxBaudRate, s.Baud())

	_, s = openSerial(t, 0)
	require.Zero(t, s.Baud())
}

func TestSerialDisconnected(t *testing.T) {
	bus, s := openSerial(t, 0)
	require.True(t, s.Connected())

	bus.Disconnect(10)
	require.False(t, s.Connected())

	err := s.WriteByte(9)
	require.ErrorIs(t, err, device.ErrDisconnected)
	_, _, err = s.ReadByte()
	require.ErrorIs(t, err, device.ErrDisconnected)
}
