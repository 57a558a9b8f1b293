// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func locationArg() cli.Argument {
	return &cli.StringArg{Name: "location", UsageText: "page URL or path, e.g. http://host/red#1718000000"}
}

func markerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "marker",
		Aliases: []string{"m"},
		Usage:   "Version marker to use instead of the location fragment",
	}
}

func boardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "layout",
			Aliases: []string{"l"},
			Usage:   "Path to the games layout file",
		},
		&cli.StringFlag{
			Name:    "game",
			Aliases: []string{"g"},
			Usage:   "Game id to render (default: from config or location)",
		},
	}
}

func journalFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "journal",
			Usage: "Path to the journal database (default: journal.path)",
		},
	}
}

// watchCommand follows a page without a terminal UI
func watchCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		markerFlag(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Print a board snapshot after every update (text, markdown, csv, json)",
		},
		&cli.StringFlag{
			Name:  "journal",
			Usage: "Record received events to this SQLite file",
		},
	}

	return &cli.Command{
		Name:      "watch",
		Usage:     "Subscribe to a page's event stream and log applied updates",
		Arguments: []cli.Argument{locationArg()},
		Flags:     append(flags, boardFlags()...),
		Action:    r.Watch,
	}
}

// endpointCommand prints the stream endpoint derived from a location
func endpointCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "endpoint",
		Usage:     "Print the event stream endpoint for a page location",
		Arguments: []cli.Argument{locationArg()},
		Flags: []cli.Flag{
			configFlag(),
			markerFlag(),
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Path prefix of the stream endpoint (default: server.sse_prefix)",
			},
		},
		Action: r.Endpoint,
	}
}

// tuiCommand returns the top-level TUI command for the interactive live board.
func tuiCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		markerFlag(),
		&cli.StringFlag{
			Name:  "journal",
			Usage: "Record received events to this SQLite file",
		},
	}

	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive live board",
		Arguments: []cli.Argument{locationArg()},
		Flags:     append(flags, boardFlags()...),
		Action:    r.TUI,
	}
}

// journalCommand inspects recorded sessions
func journalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Inspect and replay recorded stream sessions",
		Commands: []*cli.Command{
			{
				Name:  "sessions",
				Usage: "List recorded sessions",
				Flags: append(journalFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.JournalSessions,
			},
			{
				Name:  "list",
				Usage: "List the events of a session",
				Flags: append(journalFlags(),
					&cli.StringFlag{
						Name:     "session",
						Aliases:  []string{"s"},
						Usage:    "Session ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to return (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.JournalList,
			},
			{
				Name:  "replay",
				Usage: "Apply a session's events to a fresh board and print it",
				Flags: append(append(journalFlags(),
					&cli.StringFlag{
						Name:     "session",
						Aliases:  []string{"s"},
						Usage:    "Session ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Snapshot format (text, markdown, csv, json)",
						Value:   "text",
					},
				), boardFlags()...),
				Action: r.JournalReplay,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the journal.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the configuration file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "journal",
				Usage:  "Initialize the journal database and run migrations",
				Flags:  journalFlags(),
				Action: r.SetupJournal,
			},
		},
	}
}
