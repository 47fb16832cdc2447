package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Wrote %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set beatport.genre_id and youtube.playlist_id in %s\n", path)
	r.writePlain("2. Put credentials in .env (%s, %s, %s, %s)\n",
		shared.EnvBeatportClientID, shared.EnvBeatportClientSecret, shared.EnvYouTubeClientID, shared.EnvYouTubeClientSecret)
	r.writePlain("3. Run 'chartsync auth youtube'\n")
	return nil
}

// SetupDatabase initializes the journal database and runs migrations, or reverts the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back latest migration", "path", r.config.Database.Path)
		return nil
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	_, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}
