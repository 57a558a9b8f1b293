package sse

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// DefaultKind is the event kind of frames without an event field.
const DefaultKind = "message"

const bom = "\ufeff"

// MaxLineSize is the longest line a Decoder accepts.
const MaxLineSize = 1 << 20

// Decoder reads events from a text/event-stream body.
//
// The last event id and the retry interval are connection state, so they survive across frames
// and are exposed through [Decoder.LastEventID] and [Decoder.Retry].
type Decoder struct {
	r       *bufio.Reader
	started bool
	skipLF  bool // previous line ended in CR

	lastID string
	idBuf  string // id field of the frame being read, committed when the frame ends
	retry  time.Duration
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// SetLastEventID seeds the id reported by events that carry no id field.
func (d *Decoder) SetLastEventID(id string) {
	d.lastID = id
	d.idBuf = id
}

// LastEventID returns the id of the last complete frame.
func (d *Decoder) LastEventID() string { return d.lastID }

// Retry returns the last reconnection time sent by the server, or 0.
func (d *Decoder) Retry() time.Duration { return d.retry }

// Next blocks until a complete frame with data has been read.
//
// A frame cut off by the end of the stream is discarded along with its id field, and the read
// error is returned.
func (d *Decoder) Next() (livesync.Event, error) {
	var (
		data    strings.Builder
		hasData bool
		kind    string
	)

	for {
		line, err := d.readLine()
		if err != nil {
			return livesync.Event{}, err
		}
		if !d.started {
			d.started = true
			line = strings.TrimPrefix(line, bom)
		}

		if line == "" {
			d.lastID = d.idBuf
			if !hasData {
				kind = ""
				continue
			}
			if kind == "" {
				kind = DefaultKind
			}
			return livesync.Event{ID: d.lastID, Kind: kind, Data: data.String()}, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			kind = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.idBuf = value
			}
		case "retry":
			if ms, ok := parseRetry(value); ok {
				d.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

func (d *Decoder) readLine() (string, error) {
	var buf []byte
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return "", err
		}

		if d.skipLF {
			d.skipLF = false
			if b == '\n' {
				continue
			}
		}

		if len(buf) >= MaxLineSize && b != '\n' && b != '\r' {
			return "", fmt.Errorf("%w: line exceeds %d bytes", shared.ErrTransport, MaxLineSize)
		}

		switch b {
		case '\n':
			return string(buf), nil
		case '\r':
			d.skipLF = true
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// parseRetry accepts ASCII digits only.
func parseRetry(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms > int64(math.MaxInt64/time.Millisecond) {
		return 0, false
	}
	return ms, true
}
