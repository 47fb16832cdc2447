package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#FF0033", "#01FF95", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	help    lipgloss.Style
	box     lipgloss.Style
}

// NewPalette builds a palette from foreground colors for titles, success, errors, warnings and muted text.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		success: NewBold(s),
		error:   NewBold(e),
		warning: NewStyle(w),
		help:    NewEm(h),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(h)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
