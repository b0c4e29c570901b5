// Package preflight provides readiness checks for the filesystem state a
// build depends on.
//
// The CLI "webstatic check" command runs RunAll and renders each Result.
// Checks never modify the project; the lock check only probes the lock and
// releases it immediately.
package preflight
