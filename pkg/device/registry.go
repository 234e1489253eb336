package device

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/brain.go/pkg/sync"
)

// table is the fixed port-to-device binding built at boot.
type table struct {
	smart [NumSmartPorts + 1]Device
	adi   [NumAdiPorts + 1]Device
}

// Registry is the controller's device table. Bindings are written
// during boot and read by every task afterwards; the table itself is
// behind an RwLock so telemetry snapshots and late (re)binding do not
// interleave.
type Registry struct {
	bus   Bus
	table *sync.RwLock[table]
}

// NewRegistry creates an empty Registry over bus.
func NewRegistry(bus Bus) *Registry {
	return &Registry{
		bus:   bus,
		table: sync.NewRwLock(table{}),
	}
}

// Bus returns the register bus.
func (r *Registry) Bus() Bus {
	return r.bus
}

// Bind attaches dev to a smart port. Binding an invalid or taken port
// fails.
func (r *Registry) Bind(ctx context.Context, port SmartPort, dev Device) error {
	if !port.IsValid() {
		return &PortError{Port: port, Err: ErrDisconnected}
	}
	g, err := r.table.Write(ctx)
	if err != nil {
		return err
	}
	defer g.Unlock()
	if g.Value().smart[port] != nil {
		return &PortError{Port: port, Err: ErrPortTaken}
	}
	g.Value().smart[port] = dev
	glog.V(2).Infof("port %d bound: %s", port, dev.Type())
	return nil
}

// BindAdi attaches dev to a three-wire port.
func (r *Registry) BindAdi(ctx context.Context, port AdiPort, dev Device) error {
	if !port.IsValid() {
		return &AdiPortError{Port: port, Err: ErrDisconnected}
	}
	g, err := r.table.Write(ctx)
	if err != nil {
		return err
	}
	defer g.Unlock()
	if g.Value().adi[port] != nil {
		return &AdiPortError{Port: port, Err: ErrPortTaken}
	}
	g.Value().adi[port] = dev
	glog.V(2).Infof("adi port %c bound: %s", 'A'+int(port)-1, dev.Type())
	return nil
}

// Device returns the device bound to a smart port, or nil.
func (r *Registry) Device(ctx context.Context, port SmartPort) (Device, error) {
	if !port.IsValid() {
		return nil, &PortError{Port: port, Err: ErrDisconnected}
	}
	g, err := r.table.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer g.Unlock()
	return g.Value().smart[port], nil
}

// PortRecord is one row of a registry snapshot.
type PortRecord struct {
	Port      int    `json:"port"`
	Adi       bool   `json:"adi,omitempty"`
	Type      Type   `json:"type"`
	Connected bool   `json:"connected"`
	Name      string `json:"name,omitempty"`
}

// Snapshot reports every bound port with its current connection
// state. It holds the table read-locked for the duration, so probes
// never observe a half-rebound table.
func (r *Registry) Snapshot(ctx context.Context) ([]PortRecord, error) {
	g, err := r.table.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer g.Unlock()
	var records []PortRecord
	for port := 1; port <= NumSmartPorts; port++ {
		dev := g.Value().smart[port]
		if dev == nil {
			continue
		}
		records = append(records, PortRecord{
			Port:      port,
			Type:      dev.Type(),
			Connected: dev.Connected(),
		})
	}
	for port := 1; port <= NumAdiPorts; port++ {
		dev := g.Value().adi[port]
		if dev == nil {
			continue
		}
		records = append(records, PortRecord{
			Port:      port,
			Adi:       true,
			Type:      dev.Type(),
			Connected: dev.Connected(),
		})
	}
	return records, nil
}
