// package formatter renders charts, sync results and run history for humans and files (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/synctag"
)

// Format is an export format for [ChartExport].
type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat accepts a format name case-insensitively. "text", "markdown" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// ChartExport is a fetched chart with the context it was fetched in.
type ChartExport struct {
	Genre     models.Genre        `json:"genre"`
	TopN      int                 `json:"top_n"`
	FetchedAt time.Time           `json:"fetched_at"`
	Entries   []models.ChartEntry `json:"entries"`
}

// Title is the genre name, or its id when the name is unknown.
func (e *ChartExport) Title() string {
	if e.Genre.Name != "" {
		return e.Genre.Name
	}
	return fmt.Sprintf("Genre %d", e.Genre.ID)
}

// Export renders the chart in the given format.
func Export(export *ChartExport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return shared.MarshalJSON(export, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a ChartExport to CSV format with columns: Position, ID, Artists, Name, Mix, ISRC, Tag
func ExportToCSV(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Artists", "Name", "Mix", "ISRC", "Tag"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range export.Entries {
		record := []string{
			strconv.Itoa(entry.Position),
			entry.ID,
			strings.Join(entry.Artists, ", "),
			entry.Name,
			entry.MixName,
			entry.ISRC,
			synctag.Format(entry.ID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ChartExport to a Markdown document with a numbered track list
func ExportToMarkdown(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s Top %d\n\n", export.Title(), export.TopN))
	if !export.FetchedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Fetched**: %s\n", export.FetchedAt.UTC().Format(time.RFC3339)))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Entries)))

	buf.WriteString("## Tracks\n\n")
	for i, entry := range export.Entries {
		isrcPart := ""
		if entry.ISRC != "" {
			isrcPart = fmt.Sprintf(" `%s`", entry.ISRC)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", position(entry, i), entry.DisplayTitle(), isrcPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ChartExport to plain text format
func ExportToText(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Chart: %s Top %d\n", export.Title(), export.TopN))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Entries)))

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", position(entry, i), entry.DisplayTitle(), entry.ID))
	}

	return buf.Bytes(), nil
}

// WriteExport renders the chart and writes it to path.
//
// Defaults to genre_{id}_top_{n}.{format} as the filename.
func WriteExport(export *ChartExport, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("genre_%d_top_%d.%s", export.Genre.ID, export.TopN, format)
	}

	data, err := Export(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// position prefers the chart position and falls back to the 1-based index.
func position(entry models.ChartEntry, i int) int {
	if entry.Position > 0 {
		return entry.Position
	}
	return i + 1
}
