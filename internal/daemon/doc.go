// Package daemon coordinates the long-running ward process.
//
// It wires configuration, the key-value store, the blocklist snapshot, the
// playback monitor and actuator, the catalog scheduler and the host bridge
// into a single lifecycle with flock-based locking to prevent multiple
// instances. Storage changes from any process rebuild the snapshot and
// trigger a re-evaluation of whatever is playing.
//
// Keep orchestration logic here; matching and intervention rules live in
// their own packages.
package daemon
