package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/dexwatch/internal/livesync"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	selected lipgloss.Style
	statuses map[livesync.Status]lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		selected: lipgloss.NewStyle().Reverse(true),
		statuses: map[livesync.Status]lipgloss.Style{
			livesync.StatusCaught:            NewStyle(s),
			livesync.StatusMissing:           NewStyle(h),
			livesync.StatusFiller:            NewStyle("#3A3A3A"),
			livesync.StatusWrong:             NewBold(e),
			livesync.StatusEvolution:         NewStyle(w),
			livesync.StatusOtherGame:         NewStyle("#5FAFFF"),
			livesync.StatusWrongAndOtherGame: NewBold("#FF5FD7"),
		},
	}
}

// Status returns the style for a slot status. Unknown statuses use the warning style.
func (p *Palette) Status(s livesync.Status) lipgloss.Style {
	if !s.Known() {
		return p.warn
	}
	return p.statuses[s]
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
