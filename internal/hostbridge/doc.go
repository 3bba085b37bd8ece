// Package hostbridge serves the HTTP API the in-page companion uses to push
// player state into the daemon and collect the actions the daemon queued.
//
// The companion posts the player bar on every mutation it observes, either as
// structured JSON or as raw outerHTML that the bridge parses. Actions
// (feedback, next, seek_end) are returned by GET /api/commands and also
// piggyback on the POST /api/player response so a single round trip usually
// suffices. When paths.api_token is set every route except /healthz requires
// a bearer token.
package hostbridge
