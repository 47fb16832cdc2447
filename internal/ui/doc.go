// Package ui implements the sync monitor using bubbletea's Elm architecture.
//
// Views:
//  1. [ChartView] : Browse the fetched chart
//  2. [ConfirmView] : Confirm the sync against the target playlist
//  3. [SyncView] : Spinner and live progress from the reconciler
//  4. [ResultView] : Counters and failed or missing tracks
//
// Progress flows from [tasks.Reconciler.Run] through a buffered channel; the final
// [tasks.SyncResult] arrives separately so a dropped update never loses the outcome.
package ui
