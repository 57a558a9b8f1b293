package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/dexwatch/internal/journal"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("output")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set server.base_url and layout.path in %s\n", configPath)
	r.writePlain("2. Run 'dexwatch endpoint /<game>#<marker>' to check the stream endpoint\n")
	return nil
}

// SetupJournal initializes the journal database and runs migrations.
func (r *Runner) SetupJournal(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg := config.Journal
	cfg.Enabled = true
	if cmd.IsSet("journal") {
		cfg.Path = cmd.String("journal")
	}

	r.logger.Info("initializing journal", "path", cfg.Path)
	j, err := journal.Open(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	r.logger.Infof("setup complete for journal: %v", cfg.Path)
	return nil
}
