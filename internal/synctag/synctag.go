// Package synctag encodes a catalog track id into a playlist item note and reads it back.
//
// A note that carries no tag belongs to an item chartsync does not manage.
package synctag

import "regexp"

// Prefix precedes the track id inside a note.
const Prefix = "beatport_track_id:"

var pattern = regexp.MustCompile(regexp.QuoteMeta(Prefix) + `(\d+)`)

// Format returns the note text for the given track id.
func Format(id string) string {
	return Prefix + id
}

// Parse extracts the first track id found in note.
func Parse(note string) (string, bool) {
	m := pattern.FindStringSubmatch(note)
	if m == nil {
		return "", false
	}
	return m[1], true
}
