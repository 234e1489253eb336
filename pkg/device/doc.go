// Package device models the controller's fixed peripheral table: 21
// smart ports and 8 three-wire (ADI) ports. Devices are bound to
// ports once at boot and accessed through register reads/writes on a
// Bus; a port whose hardware is unplugged reports a PortError instead
// of stale data.
package device
