// Package notifications pushes intervention and catalog events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the daemon calls the Service interface unconditionally. Per-event toggles
// in the notifications config section decide which events reach the wire.
package notifications
