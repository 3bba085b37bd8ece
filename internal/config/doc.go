// Package config loads, normalizes, and validates ward configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WARD_API_TOKEN. The Config type centralizes every knob the daemon and CLI
// need: where the blocklist database lives, which remote catalog to sync, how
// aggressive artist matching is, and how long an intervention may take.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
