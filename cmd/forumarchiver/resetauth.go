package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

func resetAuthCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset-auth",
		Usage:     "requeue an auth_required archive as pending",
		ArgsUsage: "<archive-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one archive id argument")
			}
			archiveID, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid archive id %q: %w", c.Args().First(), err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := newLogger(cfg.LogLevel)

			db, err := store.Open(cfg.DatabasePath, log)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer db.Close()

			if err := db.ResetAuthRequired(c.Context, archiveID); err != nil {
				return fmt.Errorf("resetting archive %d: %w", archiveID, err)
			}
			fmt.Printf("archive %d requeued as pending\n", archiveID)
			return nil
		},
	}
}
