package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
	"github.com/desertthunder/dexwatch/internal/sse"
	"github.com/desertthunder/dexwatch/internal/ui"
)

// TUI launches the interactive live board.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
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

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(config.Log.Level))
	r.SetLogger(fileLogger)

	j, err := r.openJournal(cmd, config)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	status := make(chan sse.StatusUpdate, 16)
	dispatcher := ui.NewDispatcher(config.Stream.QueueSize)
	defer dispatcher.Stop()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Board:      b,
		Dispatcher: dispatcher,
		Status:     status,
		Columns:    config.UI.Columns,
		Logger:     fileLogger,
	})

	opts := []livesync.Option{
		livesync.WithPrefix(config.Server.SSEPrefix),
		livesync.WithDispatcher(dispatcher),
		livesync.WithLogger(fileLogger),
		livesync.WithAppliedHook(model.Applied),
	}
	if j != nil {
		opts = append(opts, livesync.WithRecorder(j))
	}

	manager := livesync.NewManager(r.newClient(config, status), livesync.NewApplicator(b), opts...)
	if err := startManager(ctx, manager, cmd, loc); err != nil {
		return err
	}
	if manager.Active() {
		model.SetEndpoint(manager.Endpoint().Redacted())
	} else {
		status <- sse.StatusUpdate{State: sse.Closed, Err: fmt.Errorf("no version marker, live updates disabled")}
	}

	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, runErr := p.Run()

	// Unblock the stream reader before waiting for it.
	dispatcher.Stop()
	if err := manager.Close(); err != nil {
		fileLogger.Warn("failed to close subscription", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}
