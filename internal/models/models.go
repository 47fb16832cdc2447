// package models defines the data model for chartsync
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persisted models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// ChartEntry is one track of a genre chart.
//
// ID is the catalog track id rendered as decimal digits.
type ChartEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MixName  string   `json:"mix_name"`
	ISRC     string   `json:"isrc"`
	Artists  []string `json:"artists,omitempty"`
	Position int      `json:"position"`
}

// SearchQuery joins name, mix name and ISRC with single spaces.
//
// Empty fields still take their slot.
func (e ChartEntry) SearchQuery() string {
	return e.Name + " " + e.MixName + " " + e.ISRC
}

// DisplayTitle renders "Artist, Artist - Name (Mix)" for humans.
func (e ChartEntry) DisplayTitle() string {
	title := e.Name
	if e.MixName != "" {
		title = fmt.Sprintf("%s (%s)", title, e.MixName)
	}
	if len(e.Artists) > 0 {
		title = strings.Join(e.Artists, ", ") + " - " + title
	}
	return title
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PlaylistItem is one entry of the destination playlist.
type PlaylistItem struct {
	ID      string `json:"id"`
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Note    string `json:"note,omitempty"`
}

// VideoRef identifies a video returned by search.
type VideoRef struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
}

// PlaylistMeta is the title and description of a playlist.
type PlaylistMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IsZero reports whether neither field is set.
func (m PlaylistMeta) IsZero() bool {
	return m.Title == "" && m.Description == ""
}
