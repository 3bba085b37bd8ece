// Package logs reads the daemon's log files for the CLI.
//
// Last reads the trailing lines of a file with bounded memory. Follow streams
// lines appended after an offset, waking on file system events, and tolerates
// the current-log pointer being swapped to a new run's file.
package logs
