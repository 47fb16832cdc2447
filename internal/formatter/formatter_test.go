package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	th "github.com/desertthunder/chartsync/internal/testing"
)

func testExport() *ChartExport {
	return &ChartExport{
		Genre:     models.Genre{ID: 13, Name: "Psy-Trance", Slug: "psy-trance"},
		TopN:      2,
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Entries: []models.ChartEntry{
			{ID: "100", Name: "Shaman", MixName: "Original Mix", ISRC: "IL1", Artists: []string{"Vini Vici"}, Position: 1},
			{ID: "200", Name: "Free Tibet", MixName: "", ISRC: "", Artists: []string{"Hilight Tribe", "Vini Vici"}, Position: 2},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"Text", FormatText},
		{"csv", FormatCSV},
		{"markdown", FormatMarkdown},
		{"MD", FormatMarkdown},
		{" json ", FormatJSON},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")

		if lines[0] != "Position,ID,Artists,Name,Mix,ISRC,Tag" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[1] != "1,100,Vini Vici,Shaman,Original Mix,IL1,beatport_track_id:100" {
			t.Errorf("unexpected first record: %s", lines[1])
		}
		if !strings.Contains(lines[2], `"Hilight Tribe, Vini Vici"`) {
			t.Errorf("expected quoted artist list, got: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Psy-Trance Top 2",
			"**Fetched**: 2025-06-01T12:00:00Z",
			"**Tracks**: 2",
			"1. Vini Vici - Shaman (Original Mix) `IL1`",
			"2. Hilight Tribe, Vini Vici - Free Tibet\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		export := testExport()
		export.Genre.Name = ""
		export.Entries[1].Position = 0

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "Chart: Genre 13 Top 2") {
			t.Errorf("expected genre id fallback, got:\n%s", output)
		}
		if !strings.Contains(output, "2. Hilight Tribe, Vini Vici - Free Tibet [200]") {
			t.Errorf("expected index fallback for missing position, got:\n%s", output)
		}
	})

	t.Run("Export JSON", func(t *testing.T) {
		data, err := Export(testExport(), FormatJSON)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var decoded ChartExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Genre.ID != 13 || len(decoded.Entries) != 2 || decoded.Entries[0].ISRC != "IL1" {
			t.Errorf("unexpected decoded export %+v", decoded)
		}
	})

	t.Run("Export unknown format", func(t *testing.T) {
		if _, err := Export(testExport(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty chart", func(t *testing.T) {
		for _, format := range Formats {
			if _, err := Export(&ChartExport{Genre: models.Genre{ID: 1}}, format); err != nil {
				t.Errorf("Export(%s) of empty chart failed: %v", format, err)
			}
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chart.md")

		got, err := WriteExport(testExport(), FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "# Psy-Trance Top 2") {
			t.Errorf("unexpected file content:\n%s", content)
		}
	})

	t.Run("default path", func(t *testing.T) {
		dir := t.TempDir()
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chdir(wd) })

		got, err := WriteExport(testExport(), FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "genre_13_top_2.csv" {
			t.Errorf("unexpected default path %s", got)
		}
		if _, err := os.Stat(filepath.Join(dir, got)); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "chart.txt")
		if _, err := WriteExport(testExport(), FormatText, path); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}
