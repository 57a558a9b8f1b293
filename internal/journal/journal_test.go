package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

func setupTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(shared.JournalConfig{Enabled: true, Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		if _, err := Open(shared.JournalConfig{Path: ":memory:"}); !errors.Is(err, shared.ErrJournalDisabled) {
			t.Errorf("expected ErrJournalDisabled, got %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := Open(shared.JournalConfig{Enabled: true}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("Record and List", func(t *testing.T) {
		j := setupTestJournal(t)

		events := []livesync.Event{
			{ID: "1", Kind: livesync.KindBoxes, Data: `[["caught"]]`},
			{ID: "2", Kind: livesync.KindCaught, Data: "red|1|151"},
			{Kind: livesync.KindBoxes, Data: `[["missing"]]`},
		}
		for _, ev := range events {
			if err := j.Record(ctx, "s1", "http://h/sse/red/1", ev); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		entries, err := j.List(ctx, "s1", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(entries) != len(events) {
			t.Fatalf("got %d entries, want %d", len(entries), len(events))
		}
		for i, entry := range entries {
			if entry.Seq != i+1 {
				t.Errorf("entry %d seq = %d", i, entry.Seq)
			}
			if entry.Event != events[i] {
				t.Errorf("entry %d = %+v, want %+v", i, entry.Event, events[i])
			}
			if entry.SessionID != "s1" || entry.ID == "" {
				t.Errorf("entry %d missing ids: %+v", i, entry)
			}
		}
	})

	t.Run("List with limit", func(t *testing.T) {
		j := setupTestJournal(t)
		for range 5 {
			_ = j.Record(ctx, "s1", "e", livesync.Event{Kind: livesync.KindBoxes, Data: "[]"})
		}

		entries, err := j.List(ctx, "s1", 2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(entries) != 2 || entries[1].Seq != 2 {
			t.Errorf("unexpected entries: %+v", entries)
		}
	})

	t.Run("List unknown session", func(t *testing.T) {
		j := setupTestJournal(t)
		if _, err := j.List(ctx, "nope", 0); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Record requires session", func(t *testing.T) {
		j := setupTestJournal(t)
		if err := j.Record(ctx, "", "e", livesync.Event{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Sessions", func(t *testing.T) {
		j := setupTestJournal(t)
		base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		j.now = func() time.Time { return base }
		_ = j.Record(ctx, "old", "http://h/sse/a/1", livesync.Event{Kind: livesync.KindBoxes, Data: "[]"})
		_ = j.Record(ctx, "old", "http://h/sse/a/1", livesync.Event{Kind: livesync.KindBoxes, Data: "[]"})

		j.now = func() time.Time { return base.Add(time.Hour) }
		_ = j.Record(ctx, "new", "http://h/sse/b/2", livesync.Event{Kind: livesync.KindCaught, Data: "b|0|1"})

		sessions, err := j.Sessions(ctx)
		if err != nil {
			t.Fatalf("Sessions() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		if sessions[0].ID != "new" || sessions[0].Events != 1 || sessions[0].Endpoint != "http://h/sse/b/2" {
			t.Errorf("first session = %+v", sessions[0])
		}
		if sessions[1].ID != "old" || sessions[1].Events != 2 || !sessions[1].StartedAt.Equal(base) {
			t.Errorf("second session = %+v", sessions[1])
		}
	})

	t.Run("Replay", func(t *testing.T) {
		j := setupTestJournal(t)
		_ = j.Record(ctx, "s1", "e", livesync.Event{Kind: livesync.KindBoxes, Data: `[["wrong|pidgey"]]`})
		_ = j.Record(ctx, "s1", "e", livesync.Event{Kind: livesync.KindBoxes, Data: `[["caught"]]`})

		var kinds []string
		n, err := j.Replay(ctx, "s1", func(ev livesync.Event) error {
			kinds = append(kinds, ev.Data)
			return nil
		})
		if err != nil {
			t.Fatalf("Replay() error = %v", err)
		}
		if n != 2 || kinds[1] != `[["caught"]]` {
			t.Errorf("Replay() = %d %v", n, kinds)
		}
	})

	t.Run("Replay stops on error", func(t *testing.T) {
		j := setupTestJournal(t)
		_ = j.Record(ctx, "s1", "e", livesync.Event{Kind: livesync.KindBoxes, Data: "[]"})
		_ = j.Record(ctx, "s1", "e", livesync.Event{Kind: livesync.KindBoxes, Data: "[]"})

		boom := errors.New("boom")
		n, err := j.Replay(ctx, "s1", func(livesync.Event) error { return boom })
		if !errors.Is(err, boom) || n != 0 {
			t.Errorf("Replay() = %d, %v", n, err)
		}
	})
}
