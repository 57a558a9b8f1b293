package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/livesync"
)

// Endpoint prints the stream endpoint a page at the given location subscribes to.
func (r *Runner) Endpoint(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	loc, err := resolveLocation(config, cmd.StringArg("location"))
	if err != nil {
		return err
	}

	marker := cmd.String("marker")
	if marker == "" {
		marker = livesync.MarkerFromLocation(loc)
	}
	if marker == "" {
		return r.writePlain("No version marker in %s; live updates are disabled.\n", loc.Redacted())
	}

	prefix := config.Server.SSEPrefix
	if cmd.IsSet("prefix") {
		prefix = cmd.String("prefix")
	}

	return r.writePlain("%s\n", livesync.Endpoint(loc, marker, prefix).String())
}
