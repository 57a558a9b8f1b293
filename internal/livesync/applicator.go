package livesync

import (
	"fmt"

	"github.com/desertthunder/dexwatch/internal/shared"
)

// Applicator maps decoded events onto a [View].
type Applicator struct {
	view View
}

// NewApplicator creates an Applicator writing to view.
func NewApplicator(view View) *Applicator {
	return &Applicator{view: view}
}

// ApplyBoxes replaces status and annotation of every slot named in a boxes payload.
//
// The payload is decoded completely before anything is mutated, so a malformed payload leaves
// the view untouched. Positions the view does not render are skipped and reported with
// [shared.ErrMissingTarget] after the rest has been applied.
func (a *Applicator) ApplyBoxes(data string) error {
	boxes, err := DecodeBoxes([]byte(data))
	if err != nil {
		return err
	}

	var missingBoxes, missingSlots int
	for i, box := range boxes {
		container, ok := a.view.Container(i)
		if !ok {
			missingBoxes++
			continue
		}

		for j, update := range box {
			slot, ok := container.Slot(j)
			if !ok {
				missingSlots++
				continue
			}
			applySlot(slot, update)
		}
	}

	if missingBoxes > 0 || missingSlots > 0 {
		return fmt.Errorf("%w: %d boxes and %d slots not rendered", shared.ErrMissingTarget, missingBoxes, missingSlots)
	}
	return nil
}

func applySlot(slot Slot, u SlotUpdate) {
	slot.SetStatus(u.Status)
	if u.Annotation != "" {
		slot.SetAnnotation(u.Annotation)
	} else {
		slot.ClearAnnotation()
	}
}

// ApplyCaught sets the progress readout named in a caught payload.
//
// An unknown game is a no-op reported with [shared.ErrMissingTarget].
func (a *Applicator) ApplyCaught(data string) error {
	progress, err := DecodeCaught(data)
	if err != nil {
		return err
	}

	readout, ok := a.view.GameReadout(progress.GameID)
	if !ok {
		return fmt.Errorf("%w: no readout for game %q", shared.ErrMissingTarget, progress.GameID)
	}

	readout.SetText(progress.Text())
	return nil
}

// Apply routes an event to the listener for its kind. Unknown kinds are ignored.
func (a *Applicator) Apply(ev Event) error {
	switch ev.Kind {
	case KindBoxes:
		return a.ApplyBoxes(ev.Data)
	case KindCaught:
		return a.ApplyCaught(ev.Data)
	default:
		return nil
	}
}
