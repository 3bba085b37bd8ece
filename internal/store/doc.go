// Package store persists ward's key-value data in SQLite and publishes a
// change feed.
//
// Values are JSON documents keyed by name (blockedArtists, aiBlocklist, ...).
// Writes made through Set are published to subscribers in commit order.
// Writes made by other processes sharing the database file, such as the CLI,
// are picked up by Watch, which observes the database directory and rescans
// for values that differ from the last ones seen.
package store
