package device_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/device"
)

const testConfigYAML = `
ports:
- port: 1
  type: motor
  name: left-drive
- port: 2
  type: motor
- port: 10
  type: serial
  baud: 230400
- port: 1
  adi: true
  type: digital-in
- port: 3
  adi: true
  type: solenoid
- port: 8
  adi: true
  type: line-tracker
`

func TestParseConfig(t *testing.T) {
	conf, err := device.ParseConfig([]byte(testConfigYAML))
	require.NoError(t, err)
	require.Len(t, conf.Ports, 6)
	require.Equal(t, device.PortConfig{Port: 1, Type: device.TypeMotor, Name: "left-drive"}, conf.Ports[0])
	require.Equal(t, device.PortConfig{Port: 10, Type: device.TypeSerial, Baud: 230400}, conf.Ports[2])
	require.Equal(t, device.PortConfig{Port: 1, Adi: true, Type: device.TypeDigitalIn}, conf.Ports[3])
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name string
		conf device.Config
		err  string
	}{
		{
			name: "port out of range",
			conf: device.Config{Ports: []device.PortConfig{{Port: 22, Type: device.TypeMotor}}},
			err:  "port 22 out of range 1..21",
		},
		{
			name: "adi port out of range",
			conf: device.Config{Ports: []device.PortConfig{{Port: 9, Adi: true, Type: device.TypeSolenoid}}},
			err:  "adi port 9 out of range 1..8",
		},
		{
			name: "duplicate port",
			conf: device.Config{Ports: []device.PortConfig{
				{Port: 1, Type: device.TypeMotor},
				{Port: 1, Type: device.TypeSerial},
			}},
			err: "port 1 declared twice",
		},
		{
			name: "smart type on adi port",
			conf: device.Config{Ports: []device.PortConfig{{Port: 1, Adi: true, Type: device.TypeMotor}}},
			err:  `adi port 1: unsupported type "motor"`,
		},
		{
			name: "adi type on smart port",
			conf: device.Config{Ports: []device.PortConfig{{Port: 1, Type: device.TypeSolenoid}}},
			err:  `port 1: unsupported type "solenoid"`,
		},
		{
			name: "baud too fast",
			conf: device.Config{Ports: []device.PortConfig{{Port: 1, Type: device.TypeSerial, Baud: 1000000}}},
			err:  "port 1: baud 1000000 exceeds 921600",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.EqualError(t, tc.conf.Validate(), tc.err)
		})
	}
}

func TestConfigApply(t *testing.T) {
	ctx := context.Background()
	conf, err := device.ParseConfig([]byte(testConfigYAML))
	require.NoError(t, err)

	r := device.NewRegistry(device.NewMemBus())
	require.NoError(t, conf.Apply(ctx, r))

	dev, err := r.Device(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, device.TypeMotor, dev.Type())
	dev, err = r.Device(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, device.TypeSerial, dev.Type())

	records, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 6)
}

func TestConfigApplyPortTaken(t *testing.T) {
	ctx := context.Background()
	conf := &device.Config{Ports: []device.PortConfig{{Port: 1, Type: device.TypeMotor}}}

	r := device.NewRegistry(device.NewMemBus())
	require.NoError(t, conf.Apply(ctx, r))
	require.ErrorIs(t, conf.Apply(ctx, r), device.ErrPortTaken)
}
