package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/chartsync/internal/models"
)

var _ list.Item = chartItem{}

// chartItem wraps [models.ChartEntry] to implement [list.Item].
type chartItem struct {
	entry models.ChartEntry
}

func (i chartItem) FilterValue() string {
	return i.entry.Name + " " + strings.Join(i.entry.Artists, " ")
}

func (i chartItem) Title() string {
	return fmt.Sprintf("%d. %s", i.entry.Position, i.entry.DisplayTitle())
}

func (i chartItem) Description() string {
	if i.entry.ISRC == "" {
		return "#" + i.entry.ID
	}
	return fmt.Sprintf("#%s • %s", i.entry.ID, i.entry.ISRC)
}

func chartItems(entries []models.ChartEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = chartItem{entry: entry}
	}
	return items
}
