// Package boot brings the controller runtime up: it resolves the
// brain's identity, loads the device table, and hands out the
// scheduler everything else runs on. Booting is idempotent; a failed
// boot may be retried.
package boot
