package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/model"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

// statusOrder fixes the printed order of statuses, grounded on
// davidroman0O-4chan-archiver/cmd/status.go's summary-table style.
var statusOrder = []model.ArchiveStatus{
	model.ArchiveStatusPending,
	model.ArchiveStatusProcessing,
	model.ArchiveStatusComplete,
	model.ArchiveStatusFailed,
	model.ArchiveStatusSkipped,
	model.ArchiveStatusAuthRequired,
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "print a summary of archive counts by status",
		Action: func(c *cli.Context) error {
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

			counts, err := db.CountByStatus(c.Context)
			if err != nil {
				return fmt.Errorf("counting archives by status: %w", err)
			}

			total := 0
			for _, status := range statusOrder {
				n := counts[status]
				total += n
				fmt.Printf("%-14s %d\n", status, n)
			}
			fmt.Printf("%-14s %d\n", "total", total)
			return nil
		},
	}
}
