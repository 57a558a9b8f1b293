// package formatter renders board snapshots as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/dexwatch/internal/board"
	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// Columns is the number of slots per row in box grids.
const Columns = 6

// Formats accepted by [Write].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Symbol returns the one-character glyph used for a status in text grids.
func Symbol(status livesync.Status) string {
	switch status {
	case livesync.StatusCaught:
		return "●"
	case livesync.StatusMissing:
		return "·"
	case livesync.StatusFiller:
		return " "
	case livesync.StatusWrong:
		return "x"
	case livesync.StatusEvolution:
		return "e"
	case livesync.StatusOtherGame:
		return "o"
	case livesync.StatusWrongAndOtherGame:
		return "X"
	default:
		return "?"
	}
}

// Snapshot is the serializable state of a board.
type Snapshot struct {
	Game     string            `json:"game"`
	Name     string            `json:"name"`
	Caught   int               `json:"caught"`
	Total    int               `json:"total"`
	Boxes    [][]SlotSnapshot  `json:"boxes"`
	Readouts map[string]string `json:"readouts"`
}

// SlotSnapshot is one slot of a [Snapshot].
type SlotSnapshot struct {
	Expected   string `json:"expected,omitempty"`
	Status     string `json:"status"`
	Annotation string `json:"annotation,omitempty"`
}

// NewSnapshot copies the state of b.
func NewSnapshot(b *board.Board) Snapshot {
	caught, total := b.Progress()
	snap := Snapshot{
		Game:     b.Game().ID,
		Name:     b.Game().Name,
		Caught:   caught,
		Total:    total,
		Boxes:    make([][]SlotSnapshot, len(b.Boxes())),
		Readouts: make(map[string]string, len(b.Readouts())),
	}
	for i, box := range b.Boxes() {
		snap.Boxes[i] = make([]SlotSnapshot, len(box.Slots))
		for j, s := range box.Slots {
			snap.Boxes[i][j] = SlotSnapshot{Expected: s.Expected, Status: string(s.Status), Annotation: s.Annotation}
		}
	}
	for _, r := range b.Readouts() {
		snap.Readouts[r.GameID] = r.Text
	}
	return snap
}

// ToCSV converts a board to CSV with columns: Box, Slot, Expected, Status, Annotation
func ToCSV(b *board.Board) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Box", "Slot", "Expected", "Status", "Annotation"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, box := range b.Boxes() {
		for j, s := range box.Slots {
			record := []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(j + 1),
				s.Expected,
				string(s.Status),
				s.Annotation,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts a board to Markdown: a readout table followed by one table per box
func ToMarkdown(b *board.Board) ([]byte, error) {
	var buf bytes.Buffer
	caught, total := b.Progress()

	fmt.Fprintf(&buf, "# %s\n\n", b.Game().Name)
	fmt.Fprintf(&buf, "**Caught**: %d / %d\n\n", caught, total)

	buf.WriteString("| Game | Progress |\n|---|---|\n")
	for _, r := range b.Readouts() {
		fmt.Fprintf(&buf, "| %s | %s |\n", escapeMarkdown(r.Name), r.Text)
	}

	for i, box := range b.Boxes() {
		fmt.Fprintf(&buf, "\n## Box %d\n\n", i+1)
		buf.WriteString("| # | Expected | Status | Note |\n|---|---|---|---|\n")
		for j, s := range box.Slots {
			fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", j+1, escapeMarkdown(s.Expected), s.Status, escapeMarkdown(s.Annotation))
		}
	}

	return buf.Bytes(), nil
}

// ToText converts a board to box grids of status symbols
func ToText(b *board.Board) ([]byte, error) {
	var buf bytes.Buffer
	caught, total := b.Progress()

	fmt.Fprintf(&buf, "Game: %s\n", b.Game().Name)
	fmt.Fprintf(&buf, "Caught: %d / %d\n", caught, total)
	for _, r := range b.Readouts() {
		fmt.Fprintf(&buf, "  %-12s %s\n", r.Name, r.Text)
	}

	for i, box := range b.Boxes() {
		fmt.Fprintf(&buf, "\nBox %d\n", i+1)
		var notes []string
		for j, s := range box.Slots {
			buf.WriteString(Symbol(s.Status))
			if (j+1)%Columns == 0 || j == len(box.Slots)-1 {
				buf.WriteByte('\n')
			} else {
				buf.WriteByte(' ')
			}
			if s.Annotation != "" {
				notes = append(notes, fmt.Sprintf("  %d: %s %s (%s)", j+1, s.Status, s.Annotation, s.Expected))
			}
		}
		for _, n := range notes {
			buf.WriteString(n + "\n")
		}
	}

	return buf.Bytes(), nil
}

// ToJSON converts a board to an indented [Snapshot]
func ToJSON(b *board.Board) ([]byte, error) {
	return shared.MarshalJSON(NewSnapshot(b), true)
}

// Render formats a board by name.
func Render(format string, b *board.Board) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatText, "txt":
		return ToText(b)
	case FormatMarkdown, "md":
		return ToMarkdown(b)
	case FormatCSV:
		return ToCSV(b)
	case FormatJSON:
		return ToJSON(b)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (use text, markdown, csv or json)", shared.ErrInvalidFlag, format)
	}
}

// Write renders a board by name to w.
func Write(format string, b *board.Board, w io.Writer) error {
	data, err := Render(format, b)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// WriteFile renders a board by name to path.
func WriteFile(format string, b *board.Board, path string) error {
	data, err := Render(format, b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
