// Command ward runs the playback guard daemon and manages its blocklists.
//
// Blocklist commands write straight to the SQLite store; a running daemon
// notices the commit through its file watcher and rebuilds its snapshot.
// Commands that need the live player state (status, block current) talk to
// the daemon over the host bridge.
package main
