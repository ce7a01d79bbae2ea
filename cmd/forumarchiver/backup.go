package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/forumarchiver/forumarchiver/internal/backup"
	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/objectstore"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "take one database snapshot, upload it, and prune old backups, then exit",
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

			objects, err := objectstore.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Prefix, cfg.S3UseSSL)
			if err != nil {
				return fmt.Errorf("building object store gateway: %w", err)
			}

			scheduler := backup.New(db.DB(), objects, cfg.BackupInterval, cfg.BackupRetention, cfg.WorkDir, log)
			if err := scheduler.RunOnce(c.Context); err != nil {
				return fmt.Errorf("running backup: %w", err)
			}
			log.Info("backup complete")
			return nil
		},
	}
}
