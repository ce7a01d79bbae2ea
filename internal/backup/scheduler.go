// Package backup implements the Backup Scheduler (§4.8): a periodic,
// serialized snapshot of the Local Store uploaded to the Object Store
// with bounded retention. zstd compression of the snapshot stream is
// grounded on other_examples/hackclub-arker__main.go's
// zstd.NewWriter-over-io.Copy pattern.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/forumarchiver/forumarchiver/internal/objectstore"
)

// Scheduler periodically snapshots the database and uploads it, pruning
// old backups beyond Retention. Runs are serialized via runMu so an
// overlapping tick never races a VACUUM INTO against a still-uploading
// prior snapshot.
type Scheduler struct {
	db        *sql.DB
	store     *objectstore.Gateway
	log       *slog.Logger
	Interval  time.Duration
	Retention int
	WorkDir   string

	runMu sync.Mutex
}

// New builds a Scheduler.
func New(db *sql.DB, store *objectstore.Gateway, interval time.Duration, retention int, workDir string, log *slog.Logger) *Scheduler {
	return &Scheduler{db: db, store: store, Interval: interval, Retention: retention, WorkDir: workDir, log: log}
}

// Run blocks, ticking at Interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("backup run failed", "error", err)
			}
		}
	}
}

// RunOnce performs one snapshot-compress-upload-prune cycle.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	timestamp := time.Now().UTC().Format("20060102T150405Z")
	snapshotPath := fmt.Sprintf("%s/snapshot-%s.sqlite", s.WorkDir, timestamp)
	defer os.Remove(snapshotPath)

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, snapshotPath); err != nil {
		return fmt.Errorf("vacuuming database snapshot: %w", err)
	}

	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("reading database snapshot: %w", err)
	}

	compressed, err := compressZstd(raw)
	if err != nil {
		return fmt.Errorf("compressing database snapshot: %w", err)
	}

	key := objectstore.BackupKey(timestamp)
	if err := s.store.PutBytes(ctx, key, compressed, "application/zstd"); err != nil {
		return fmt.Errorf("uploading database snapshot %q: %w", key, err)
	}

	s.log.Info("backup uploaded", "key", key, "bytes", len(compressed))

	if err := s.prune(ctx); err != nil {
		s.log.Error("pruning old backups failed", "error", err)
	}
	return nil
}

func compressZstd(data []byte) ([]byte, error) {
	var buf strings.Builder
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("opening zstd writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("writing to zstd stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zstd stream: %w", err)
	}
	return []byte(buf.String()), nil
}

// prune deletes backups beyond Retention, oldest first.
func (s *Scheduler) prune(ctx context.Context) error {
	keys, err := s.store.List(ctx, "backups/db/")
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	if len(keys) <= s.Retention {
		return nil
	}

	sort.Strings(keys)
	excess := len(keys) - s.Retention
	for _, key := range keys[:excess] {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting old backup %q: %w", key, err)
		}
	}
	return nil
}
