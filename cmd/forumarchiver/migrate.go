package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending schema migrations and exit",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := newLogger(cfg.LogLevel)

			if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
				return fmt.Errorf("creating database dir: %w", err)
			}

			// store.Open applies every pending goose migration as part of
			// opening the connection; there is nothing further to do here.
			db, err := store.Open(cfg.DatabasePath, log)
			if err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			defer db.Close()

			log.Info("migrations applied", "database", cfg.DatabasePath)
			return nil
		},
	}
}
