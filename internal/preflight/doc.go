// Package preflight provides readiness checks for the paths and services
// ward depends on.
//
// The daemon runs RunAll at startup and logs failures without aborting; the
// CLI "ward check" command prints the same results as a table. Checks for
// optional integrations are skipped when they are not configured.
package preflight
