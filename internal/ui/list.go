package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/dexwatch/internal/board"
)

var (
	_ list.Item = readoutItem{}
)

// readoutItem wraps [board.Readout] to implement [list.Item].
type readoutItem struct {
	readout board.Readout
	current bool
}

func (i readoutItem) FilterValue() string { return i.readout.Name }
func (i readoutItem) Title() string {
	if i.current {
		return "▸ " + i.readout.Name
	}
	return i.readout.Name
}
func (i readoutItem) Description() string { return i.readout.Text }

func readoutItems(b *board.Board) []list.Item {
	items := make([]list.Item, len(b.Readouts()))
	for i, r := range b.Readouts() {
		items[i] = readoutItem{readout: *r, current: r.GameID == b.Game().ID}
	}
	return items
}

func newReadoutList(b *board.Board) list.Model {
	l := list.New(readoutItems(b), list.NewDefaultDelegate(), readoutsWidth, 20)
	l.Title = "Games"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}
