package telemetry

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/device"
)

// Meta describes a brain to monitors. It is published retained so a
// monitor discovers brains without waiting a publish interval.
type Meta struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// DefaultInterval is the default snapshot publish interval.
const DefaultInterval = time.Second

// Publisher periodically publishes device table snapshots.
type Publisher struct {
	Queue    *Queue
	Registry *device.Registry
	Meta     Meta
	Interval time.Duration
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue, r *device.Registry, meta Meta) *Publisher {
	return &Publisher{
		Queue:    q,
		Registry: r,
		Meta:     meta,
		Interval: DefaultInterval,
	}
}

// Run implements Runnable. The registry is read-locked only for the
// duration of each snapshot, so device binding never waits on the
// broker.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Queue.PubJSON("meta", &p.Meta, true); err != nil {
		glog.Warningf("publish meta: %v", err)
	}
	interval := p.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			records, err := p.Registry.Snapshot(ctx)
			if err != nil {
				return err
			}
			if err := p.Queue.PubJSON("devices", records, false); err != nil {
				glog.Warningf("publish devices: %v", err)
			}
		}
	}
}
