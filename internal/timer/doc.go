// Package timer holds the pure countdown state machine: reconciliation of a
// stored remaining-seconds counter against the authoritative end time,
// progress, the state transition table and the presentation helpers used by
// every view.
//
// Nothing in this package reads the clock. Callers pass "now", normally from
// an injected clock.Clock, so the same functions serve the server, the
// countdown component and the aggregation widget.
package timer
