package boot

import (
	"context"
	"flag"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/device"
	"github.com/robotalks/brain.go/pkg/sched"
	"github.com/robotalks/brain.go/pkg/sync"
)

// Config provides common options to boot a brain.
type Config struct {
	// ID identifies this brain. Defaults to the machine ID.
	ID string
	// DeviceTable is the path of the device table declaration.
	DeviceTable string
	// Bus overrides the register bus, for simulation.
	Bus device.Bus
}

var defaultConfig = Config{}

func init() {
	if val := os.Getenv("BRAIN_DEVICES"); val != "" {
		defaultConfig.DeviceTable = val
	}
	defaultConfig.ID = MachineID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Brain ID")
	flag.StringVar(&defaultConfig.DeviceTable, "devices", defaultConfig.DeviceTable, "Device table file")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// MachineID retrieves the unique ID identifying the controller
// hardware.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "unknown"
	}
	return id
}

// Brain is the booted runtime.
type Brain struct {
	Config    *Config
	ID        string
	Registry  *device.Registry
	Scheduler *sched.Scheduler
}

var (
	bootOnce sync.Once
	brain    *Brain
)

// Boot builds the runtime. It runs at most once per process: later
// calls return the already-booted Brain, and a failed boot leaves the
// runtime unbooted so a corrected config can retry.
func (c *Config) Boot(ctx context.Context) (*Brain, error) {
	err := bootOnce.Do(ctx, func() error {
		b := &Brain{Config: c, ID: c.ID, Scheduler: sched.New()}
		bus := c.Bus
		if bus == nil {
			bus = device.NewMemBus()
		}
		b.Registry = device.NewRegistry(bus)
		if c.DeviceTable != "" {
			conf, err := device.LoadConfig(c.DeviceTable)
			if err != nil {
				return err
			}
			if err := conf.Apply(ctx, b.Registry); err != nil {
				return err
			}
		}
		glog.Infof("brain %s up", b.ID)
		brain = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return brain, nil
}

// MustBoot boots and fails the process on error.
func (c *Config) MustBoot(ctx context.Context) *Brain {
	b, err := c.Boot(ctx)
	if err != nil {
		glog.Exitf("boot failed: %v", err)
	}
	return b
}

// Booted returns the booted Brain, or nil before Boot succeeds.
func Booted() *Brain {
	if !bootOnce.Done() {
		return nil
	}
	return brain
}

// Go spawns a guarded task on the brain's scheduler.
func (b *Brain) Go(name string, fn sched.TaskFunc) *sched.Task {
	return b.Scheduler.Spawn(name, Guard(fn))
}

// Run implements Runnable over the scheduler.
func (b *Brain) Run(ctx context.Context) error {
	return b.Scheduler.Run(ctx)
}
