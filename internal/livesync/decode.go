package livesync

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/dexwatch/internal/shared"
)

// Status is the state of a slot as computed by the server.
//
// The applicator treats it as opaque; the known values below are what the board and UI render.
type Status string

const (
	StatusCaught            Status = "caught"
	StatusMissing           Status = "missing"
	StatusFiller            Status = "filler"
	StatusWrong             Status = "wrong"
	StatusEvolution         Status = "evo"
	StatusOtherGame         Status = "other-game"
	StatusWrongAndOtherGame Status = "wrong-and-other-game"
)

// Known reports whether s is one of the statuses renderers have a style for.
func (s Status) Known() bool {
	switch s {
	case StatusCaught, StatusMissing, StatusFiller, StatusWrong, StatusEvolution, StatusOtherGame, StatusWrongAndOtherGame:
		return true
	}
	return false
}

const fieldSep = "|"

// SlotUpdate is the decoded state of one slot.
type SlotUpdate struct {
	Status     Status
	Annotation string // Empty means no annotation
}

// ParseSlot splits "status" or "status|annotation" at the first separator.
func ParseSlot(s string) SlotUpdate {
	status, annotation, _ := strings.Cut(s, fieldSep)
	return SlotUpdate{Status: Status(status), Annotation: annotation}
}

// String encodes u back to its wire form.
func (u SlotUpdate) String() string {
	if u.Annotation == "" {
		return string(u.Status)
	}
	return string(u.Status) + fieldSep + u.Annotation
}

// DecodeBoxes parses a boxes payload: a JSON array of boxes, each an array of slot strings.
func DecodeBoxes(data []byte) ([][]SlotUpdate, error) {
	var raw [][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: boxes: %v", shared.ErrMalformedPayload, err)
	}

	boxes := make([][]SlotUpdate, len(raw))
	for i, box := range raw {
		boxes[i] = make([]SlotUpdate, len(box))
		for j, slot := range box {
			boxes[i][j] = ParseSlot(slot)
		}
	}
	return boxes, nil
}

// Progress is a decoded caught event. Counts stay opaque strings.
type Progress struct {
	GameID string
	Caught string
	Total  string
}

// Text renders the readout text, e.g. "(12 / 51)".
func (p Progress) Text() string {
	return fmt.Sprintf("(%s / %s)", p.Caught, p.Total)
}

// DecodeCaught parses a caught payload of the form "gameId|caught|total".
func DecodeCaught(data string) (Progress, error) {
	fields := strings.Split(data, fieldSep)
	if len(fields) != 3 {
		return Progress{}, fmt.Errorf("%w: caught: expected 3 fields, got %d", shared.ErrMalformedPayload, len(fields))
	}
	return Progress{GameID: fields[0], Caught: fields[1], Total: fields[2]}, nil
}
