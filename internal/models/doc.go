// Package models defines domain entities and persistence interfaces for chartsync.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values exchanged with the catalog and video services
//   - [ChartEntry] : one ranked track of a Beatport genre chart
//   - [Genre] : a Beatport genre, used to pick the chart to follow
//   - [PlaylistItem] : an entry of the destination YouTube playlist with its note
//   - [VideoRef] : a search hit that can be inserted into the playlist
//   - [PlaylistMeta] : title and description written after every sync
//
// 2. Persistent Entities: rows of the run-history journal
//   - [SyncRun] : one reconciliation run with its counters and status
//   - [SyncRunItem] : one attempted removal, addition or unmatched search
//
// Persistent entities implement the Model interface. The Repository[T] interface defines
// the CRUD operations the journal supports.
package models
