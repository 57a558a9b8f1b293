package board

import (
	"fmt"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

var _ livesync.View = (*Board)(nil)

// Slot is one rendered position in a box.
type Slot struct {
	Expected   string
	Status     livesync.Status
	Annotation string
}

// Filler reports whether the slot has no expected entry.
func (s *Slot) Filler() bool { return s.Expected == "" }

func (s *Slot) SetStatus(status livesync.Status) { s.Status = status }
func (s *Slot) SetAnnotation(text string)        { s.Annotation = text }
func (s *Slot) ClearAnnotation()                 { s.Annotation = "" }

// Box is an ordered group of slots.
type Box struct {
	Slots []*Slot
}

func (b *Box) Slot(j int) (livesync.Slot, bool) {
	if j < 0 || j >= len(b.Slots) {
		return nil, false
	}
	return b.Slots[j], true
}

// Readout is the caught counter of one game.
type Readout struct {
	GameID string
	Name   string
	Text   string
}

func (r *Readout) SetText(text string) { r.Text = text }

// Board is the in-memory page for one game: its boxes plus a readout per game.
//
// A Board is not safe for concurrent use; it belongs to whichever goroutine applies events.
type Board struct {
	game     Game
	boxes    []*Box
	readouts []*Readout
	byGame   map[string]*Readout
}

// New builds the board of gameID from layout.
func New(layout *Layout, gameID string) (*Board, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", shared.ErrInvalidInput)
	}
	game, ok := layout.Game(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownGame, gameID)
	}

	b := &Board{game: game, byGame: make(map[string]*Readout, len(layout.Games))}
	for _, expected := range game.Expected {
		box := &Box{Slots: make([]*Slot, len(expected))}
		for j, entry := range expected {
			status := livesync.StatusMissing
			if entry == "" {
				status = livesync.StatusFiller
			}
			box.Slots[j] = &Slot{Expected: entry, Status: status}
		}
		b.boxes = append(b.boxes, box)
	}

	for _, g := range layout.Games {
		r := &Readout{
			GameID: g.ID,
			Name:   g.Name,
			Text:   livesync.Progress{GameID: g.ID, Caught: "0", Total: fmt.Sprint(g.Total())}.Text(),
		}
		b.readouts = append(b.readouts, r)
		b.byGame[g.ID] = r
	}
	return b, nil
}

func (b *Board) Container(i int) (livesync.Container, bool) {
	if i < 0 || i >= len(b.boxes) {
		return nil, false
	}
	return b.boxes[i], true
}

func (b *Board) GameReadout(id string) (livesync.Readout, bool) {
	r, ok := b.byGame[id]
	if !ok {
		return nil, false
	}
	return r, true
}

// Game returns the game this board renders.
func (b *Board) Game() Game { return b.game }

// Boxes returns the boxes in render order.
func (b *Board) Boxes() []*Box { return b.boxes }

// Readouts returns one readout per layout game, in layout order.
func (b *Board) Readouts() []*Readout { return b.readouts }

// Progress counts caught slots against the non-filler total.
func (b *Board) Progress() (caught, total int) {
	for _, box := range b.boxes {
		for _, s := range box.Slots {
			if s.Filler() {
				continue
			}
			total++
			if s.Status == livesync.StatusCaught {
				caught++
			}
		}
	}
	return caught, total
}

// SlotAt returns the slot at box i, position j.
func (b *Board) SlotAt(i, j int) (*Slot, bool) {
	if i < 0 || i >= len(b.boxes) {
		return nil, false
	}
	box := b.boxes[i]
	if j < 0 || j >= len(box.Slots) {
		return nil, false
	}
	return box.Slots[j], true
}
