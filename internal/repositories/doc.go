// Package repositories implements SQLite persistence for the sync journal.
//
// Key Implementations:
//   - [RunRepository] : one row per reconciliation run with its counters and final status
//   - [RunItemRepository] : per-item outcomes (removals, additions, misses) of a run
//
// Sequence numbers give runs a stable, human-readable ordering (run #42) independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// The journal is write-only from the point of view of a sync: it is never consulted to decide what to change.
package repositories
