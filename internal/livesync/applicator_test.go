package livesync

import (
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/dexwatch/internal/shared"
)

type fakeSlot struct {
	status     Status
	annotation string
	annotated  bool
	writes     int
}

func (s *fakeSlot) SetStatus(status Status) { s.status = status; s.writes++ }
func (s *fakeSlot) SetAnnotation(text string) {
	s.annotation, s.annotated = text, true
	s.writes++
}
func (s *fakeSlot) ClearAnnotation() {
	s.annotation, s.annotated = "", false
	s.writes++
}

type fakeBox []*fakeSlot

func (b fakeBox) Slot(j int) (Slot, bool) {
	if j < 0 || j >= len(b) {
		return nil, false
	}
	return b[j], true
}

type fakeReadout struct{ text string }

func (r *fakeReadout) SetText(text string) { r.text = text }

type fakeView struct {
	boxes    []fakeBox
	readouts map[string]*fakeReadout
}

// newFakeView renders boxes with the given slot counts and one readout per game id.
func newFakeView(sizes []int, games ...string) *fakeView {
	v := &fakeView{readouts: map[string]*fakeReadout{}}
	for _, n := range sizes {
		box := make(fakeBox, n)
		for j := range box {
			box[j] = &fakeSlot{status: StatusMissing}
		}
		v.boxes = append(v.boxes, box)
	}
	for _, g := range games {
		v.readouts[g] = &fakeReadout{}
	}
	return v
}

func (v *fakeView) Container(i int) (Container, bool) {
	if i < 0 || i >= len(v.boxes) {
		return nil, false
	}
	return v.boxes[i], true
}

func (v *fakeView) GameReadout(id string) (Readout, bool) {
	r, ok := v.readouts[id]
	if !ok {
		return nil, false
	}
	return r, true
}

func (v *fakeView) slot(i, j int) *fakeSlot { return v.boxes[i][j] }

type slotState struct {
	status     Status
	annotation string
	annotated  bool
}

func (v *fakeView) state() [][]slotState {
	out := make([][]slotState, len(v.boxes))
	for i, box := range v.boxes {
		for _, s := range box {
			out[i] = append(out[i], slotState{s.status, s.annotation, s.annotated})
		}
	}
	return out
}

func TestApplicator_ApplyBoxes(t *testing.T) {
	t.Run("maps boxes and slots by position", func(t *testing.T) {
		view := newFakeView([]int{1, 2})
		app := NewApplicator(view)

		if err := app.ApplyBoxes(`[["caught"],["wrong|pidgey","missing"]]`); err != nil {
			t.Fatalf("ApplyBoxes() error = %v", err)
		}

		want := [][]slotState{
			{{StatusCaught, "", false}},
			{{StatusWrong, "pidgey", true}, {StatusMissing, "", false}},
		}
		if got := view.state(); !reflect.DeepEqual(got, want) {
			t.Errorf("state = %+v, want %+v", got, want)
		}
	})

	t.Run("clears stale annotation", func(t *testing.T) {
		view := newFakeView([]int{1})
		app := NewApplicator(view)

		if err := app.ApplyBoxes(`[["wrong|pidgey"]]`); err != nil {
			t.Fatalf("ApplyBoxes() error = %v", err)
		}
		if err := app.ApplyBoxes(`[["caught"]]`); err != nil {
			t.Fatalf("ApplyBoxes() error = %v", err)
		}

		slot := view.slot(0, 0)
		if slot.status != StatusCaught || slot.annotated || slot.annotation != "" {
			t.Errorf("expected caught with no annotation, got %+v", slot)
		}
	})

	t.Run("empty annotation clears", func(t *testing.T) {
		view := newFakeView([]int{1})
		app := NewApplicator(view)

		_ = app.ApplyBoxes(`[["evo|pichu"]]`)
		_ = app.ApplyBoxes(`[["evo|"]]`)

		if slot := view.slot(0, 0); slot.status != StatusEvolution || slot.annotated {
			t.Errorf("expected evo without annotation, got %+v", slot)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		view := newFakeView([]int{1, 2})
		app := NewApplicator(view)
		payload := `[["caught"],["wrong|pidgey","missing"]]`

		_ = app.ApplyBoxes(payload)
		first := view.state()
		_ = app.ApplyBoxes(payload)

		if second := view.state(); !reflect.DeepEqual(first, second) {
			t.Errorf("second application changed state: %+v -> %+v", first, second)
		}
	})

	t.Run("leaves slots outside payload untouched", func(t *testing.T) {
		view := newFakeView([]int{3, 2})
		view.slot(0, 2).status = StatusWrong
		view.slot(0, 2).annotation, view.slot(0, 2).annotated = "zubat", true
		app := NewApplicator(view)

		if err := app.ApplyBoxes(`[["caught","caught"]]`); err != nil {
			t.Fatalf("ApplyBoxes() error = %v", err)
		}

		if s := view.slot(0, 2); s.writes != 0 || s.annotation != "zubat" {
			t.Errorf("slot (0,2) was touched: %+v", s)
		}
		if s := view.slot(1, 0); s.writes != 0 {
			t.Errorf("box 1 was touched: %+v", s)
		}
	})

	t.Run("malformed payload mutates nothing", func(t *testing.T) {
		view := newFakeView([]int{1})
		app := NewApplicator(view)

		err := app.ApplyBoxes(`[["caught"]`)
		if !errors.Is(err, shared.ErrMalformedPayload) {
			t.Fatalf("expected ErrMalformedPayload, got %v", err)
		}
		if view.slot(0, 0).writes != 0 {
			t.Error("slot mutated by malformed payload")
		}
	})

	t.Run("skips unrendered positions", func(t *testing.T) {
		view := newFakeView([]int{1})
		app := NewApplicator(view)

		err := app.ApplyBoxes(`[["caught","caught"],["caught"]]`)
		if !errors.Is(err, shared.ErrMissingTarget) {
			t.Fatalf("expected ErrMissingTarget, got %v", err)
		}
		if view.slot(0, 0).status != StatusCaught {
			t.Error("rendered slot should still be applied")
		}
	})
}

func TestApplicator_ApplyCaught(t *testing.T) {
	t.Run("sets readout text", func(t *testing.T) {
		view := newFakeView(nil, "3", "4")
		app := NewApplicator(view)

		if err := app.ApplyCaught("3|12|51"); err != nil {
			t.Fatalf("ApplyCaught() error = %v", err)
		}

		if got := view.readouts["3"].text; got != "(12 / 51)" {
			t.Errorf("readout text = %q, want (12 / 51)", got)
		}
		if got := view.readouts["4"].text; got != "" {
			t.Errorf("other readout changed: %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		view := newFakeView(nil, "3")
		app := NewApplicator(view)

		_ = app.ApplyCaught("3|12|51")
		_ = app.ApplyCaught("3|12|51")

		if got := view.readouts["3"].text; got != "(12 / 51)" {
			t.Errorf("readout text = %q", got)
		}
	})

	t.Run("unknown game is a no-op", func(t *testing.T) {
		view := newFakeView(nil, "3")
		app := NewApplicator(view)

		err := app.ApplyCaught("9|1|2")
		if !errors.Is(err, shared.ErrMissingTarget) {
			t.Errorf("expected ErrMissingTarget, got %v", err)
		}
		if view.readouts["3"].text != "" {
			t.Error("unrelated readout changed")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		view := newFakeView(nil, "3")
		app := NewApplicator(view)

		if err := app.ApplyCaught("3|12"); !errors.Is(err, shared.ErrMalformedPayload) {
			t.Errorf("expected ErrMalformedPayload, got %v", err)
		}
	})
}

func TestApplicator_Apply(t *testing.T) {
	view := newFakeView([]int{1}, "red")
	app := NewApplicator(view)

	if err := app.Apply(Event{Kind: KindBoxes, Data: `[["caught"]]`}); err != nil {
		t.Fatalf("Apply(boxes) error = %v", err)
	}
	if err := app.Apply(Event{Kind: KindCaught, Data: "red|1|1"}); err != nil {
		t.Fatalf("Apply(caught) error = %v", err)
	}
	if err := app.Apply(Event{Kind: "message", Data: "hello"}); err != nil {
		t.Errorf("Apply(message) error = %v, want nil", err)
	}

	if view.slot(0, 0).status != StatusCaught || view.readouts["red"].text != "(1 / 1)" {
		t.Errorf("unexpected view state: %+v %q", view.slot(0, 0), view.readouts["red"].text)
	}
}
