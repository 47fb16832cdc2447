// Package tasks implements the chart-to-playlist reconciliation.
//
// A run reads the whole destination playlist into an [ExistingIndex] keyed by the track id
// recovered from each item's note, diffs it against the fetched chart, deletes items whose
// track left the chart, searches for and inserts videos for tracks that entered it, and
// finally rewrites the playlist title and description with a fresh UTC timestamp.
//
// Failure semantics:
//   - Reading the playlist is all-or-nothing; a failed page aborts the run before any mutation.
//   - Each delete, search and insert is independent; a failure is recorded in the result and the loop moves on.
//   - The metadata update always runs once the mutation phases finish. Its failure is reported, not returned.
//
// Operations emit [ProgressUpdate] values on an optional channel without blocking.
// Mutation calls are spaced by [Pacer] values, normally [rate.Limiter] instances from [NewPacer].
package tasks
