package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/formatter"
	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/sse"
)

// Watch subscribes to a page's stream and applies updates to an in-memory board until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	loc, err := resolveLocation(config, cmd.StringArg("location"))
	if err != nil {
		return err
	}

	b, err := r.loadBoard(cmd, config, loc)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if format != "" {
		if _, err := formatter.Render(format, b); err != nil {
			return err
		}
	}

	j, err := r.openJournal(cmd, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := make(chan sse.StatusUpdate, 16)
	opts := []livesync.Option{
		livesync.WithPrefix(config.Server.SSEPrefix),
		livesync.WithQueueSize(config.Stream.QueueSize),
		livesync.WithLogger(r.logger),
		livesync.WithAppliedHook(func(ev livesync.Event) {
			caught, total := b.Progress()
			r.logger.Info("applied update", "kind", ev.Kind, "id", ev.ID, "caught", caught, "total", total)
			if format != "" {
				if err := formatter.Write(format, b, r.output); err != nil {
					r.logger.Warn("failed to write snapshot", "error", err)
				}
			}
		}),
	}
	if j != nil {
		defer j.Close()
		opts = append(opts, livesync.WithRecorder(j))
	}

	manager := livesync.NewManager(r.newClient(config, status), livesync.NewApplicator(b), opts...)
	if err := startManager(ctx, manager, cmd, loc); err != nil {
		return err
	}
	if !manager.Active() {
		return r.writePlain("No version marker in %s; live updates are disabled.\n", loc.Redacted())
	}
	defer manager.Close()

	r.logger.Info("watching", "game", b.Game().ID, "endpoint", manager.Endpoint().Redacted(), "session", manager.SessionID())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping")
			return nil
		case update := <-status:
			r.logger.Debug("stream status", "state", update.State, "attempt", update.Attempt)
			switch update.State {
			case sse.Reconnecting:
				r.logger.Warn("connection lost", "retry_in", update.Delay, "error", update.Err)
			case sse.Closed:
				if update.Err != nil {
					return fmt.Errorf("stream stopped: %w", update.Err)
				}
				return nil
			}
		}
	}
}
