package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/device"
)

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	client, q := newFakeQueue()

	bus := device.NewMemBus()
	r := device.NewRegistry(bus)
	_, err := device.NewMotor(ctx, r, 1)
	require.NoError(t, err)
	bus.Disconnect(1)

	p := NewPublisher(q, r, Meta{ID: "x"})
	p.Interval = 10 * time.Millisecond

	runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Run(runCtx), context.DeadlineExceeded)

	require.NotEmpty(t, client.publishes)
	require.Equal(t, "brain/x/meta", client.publishes[0].topic)
	require.True(t, client.publishes[0].retained)

	require.GreaterOrEqual(t, len(client.publishes), 2)
	last := client.publishes[len(client.publishes)-1]
	require.Equal(t, "brain/x/devices", last.topic)
	var records []device.PortRecord
	require.NoError(t, json.Unmarshal(last.payload, &records))
	require.Equal(t, []device.PortRecord{
		{Port: 1, Type: device.TypeMotor},
	}, records)
}
