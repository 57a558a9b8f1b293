package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/formatter"
	"github.com/desertthunder/dexwatch/internal/journal"
	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// openJournalForRead opens the journal for inspection whether or not recording is enabled.
func (r *Runner) openJournalForRead(cmd *cli.Command) (*journal.Journal, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	cfg := config.Journal
	cfg.Enabled = true
	if cmd.IsSet("journal") {
		cfg.Path = cmd.String("journal")
	}
	return journal.Open(cfg)
}

// JournalSessions lists recorded sessions.
func (r *Runner) JournalSessions(ctx context.Context, cmd *cli.Command) error {
	j, err := r.openJournalForRead(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	sessions, err := j.Sessions(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessions, true)
	}

	if len(sessions) == 0 {
		return r.writePlain("No sessions recorded.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Sessions (%d)", len(sessions)))
	for _, s := range sessions {
		r.writePlain("%s  %s  %4d events  %s\n", s.ID, s.StartedAt.Local().Format(time.DateTime), s.Events, s.Endpoint)
	}
	return nil
}

// JournalList prints the events of one session.
func (r *Runner) JournalList(ctx context.Context, cmd *cli.Command) error {
	j, err := r.openJournalForRead(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(ctx, cmd.String("session"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Session %s (%d events)", cmd.String("session"), len(entries)))
	for _, e := range entries {
		r.writePlain("%4d  %s  %-7s %s\n", e.Seq, e.ReceivedAt.Local().Format(time.TimeOnly), e.Event.Kind, e.Event.Data)
	}
	return nil
}

// JournalReplay re-applies a session's events to a fresh board and prints the result.
func (r *Runner) JournalReplay(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := r.loadBoard(cmd, config, nil)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if _, err := formatter.Render(format, b); err != nil {
		return err
	}

	j, err := r.openJournalForRead(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	app := livesync.NewApplicator(b)
	n, err := j.Replay(ctx, cmd.String("session"), func(ev livesync.Event) error {
		if err := app.Apply(ev); err != nil {
			if errors.Is(err, shared.ErrMalformedPayload) || errors.Is(err, shared.ErrMissingTarget) {
				r.logger.Warn("skipping event", "kind", ev.Kind, "error", err)
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("replayed session", "session", cmd.String("session"), "events", n)
	return formatter.Write(format, b, r.output)
}
