package livesync

// View is the rendered page as seen by the applicator.
//
// Containers and slots are addressed purely by position. Lookups return false when nothing is
// rendered at that position; the applicator never creates or removes elements.
type View interface {
	Container(i int) (Container, bool)
	GameReadout(gameID string) (Readout, bool)
}

// Container is one rendered box.
type Container interface {
	Slot(j int) (Slot, bool)
}

// Slot is one rendered storage position.
type Slot interface {
	SetStatus(status Status)
	SetAnnotation(text string)
	ClearAnnotation()
}

// Readout is a per-game progress counter.
type Readout interface {
	SetText(text string)
}
