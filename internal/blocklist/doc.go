// Package blocklist owns the blocklist data model.
//
// The read side is Rebuild: a pure projection of the three local lists and
// the cached remote catalog into one immutable Snapshot. Snapshots are
// published through a Holder and never mutated, so the monitor and the host
// bridge can read the current one without locks.
//
// The write side is Lists, the mutation service used by the CLI and the host
// bridge. It persists raw user text to the store and fires an OnChange hook
// after every successful write.
package blocklist
