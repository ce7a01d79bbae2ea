package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// CreateArchive inserts a pending Archive for linkID, unless one already
// exists that is not yet terminal (complete/skipped) — archiving is
// idempotent at ingestion time per §3's Archive lifecycle.
func (s *Store) CreateArchive(ctx context.Context, linkID int64, priority int) (*model.Archive, error) {
	var existingID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM archives WHERE link_id = ? AND status NOT IN (?, ?) ORDER BY id DESC LIMIT 1`,
		linkID, model.ArchiveStatusComplete, model.ArchiveStatusSkipped,
	).Scan(&existingID)
	if err == nil {
		return s.GetArchive(ctx, existingID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking existing archive for link %d: %w", linkID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO archives (link_id, status, priority, created_at) VALUES (?, ?, ?, ?)`,
		linkID, model.ArchiveStatusPending, priority, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating archive for link %d: %w", linkID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted archive id: %w", err)
	}
	return s.GetArchive(ctx, id)
}

// GetArchive looks up an Archive by id.
func (s *Store) GetArchive(ctx context.Context, id int64) (*model.Archive, error) {
	row := s.db.QueryRowContext(ctx, archiveSelectColumns+` FROM archives WHERE id = ?`, id)
	return scanArchive(row)
}

const archiveSelectColumns = `SELECT id, link_id, status, priority, retry_count, next_retry_at, last_attempt_at, created_at,
	title, author, extracted_text, published_at, content_class, primary_key_path, thumbnail_key, wayback_url, archive_today_url,
	nsfw, nsfw_source, last_error`

func scanArchive(row *sql.Row) (*model.Archive, error) {
	var a model.Archive
	var nextRetry, lastAttempt sql.NullTime
	var nsfw int
	err := row.Scan(&a.ID, &a.LinkID, &a.Status, &a.Priority, &a.RetryCount, &nextRetry, &lastAttempt, &a.CreatedAt,
		&a.Title, &a.Author, &a.ExtractedText, &a.PublishedAt, &a.ContentClass, &a.PrimaryKey, &a.ThumbnailKey, &a.WaybackURL, &a.ArchiveTodayURL,
		&nsfw, &a.NSFWSource, &a.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning archive row: %w", err)
	}
	if nextRetry.Valid {
		a.NextRetryAt = &nextRetry.Time
	}
	if lastAttempt.Valid {
		a.LastAttemptAt = &lastAttempt.Time
	}
	a.NSFW = nsfw != 0
	return &a, nil
}

// ClaimNextPending atomically selects and transitions to processing one
// pending or failed archive whose retry timestamp has matured, ordered by
// (priority desc, created asc) per §4.4's scheduling contract. A failed
// archive is claimable once its next_retry_at has passed. Returns
// ErrNotFound when no archive is ready.
func (s *Store) ClaimNextPending(ctx context.Context) (*model.Archive, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM archives
		 WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
		 ORDER BY priority DESC, created_at ASC LIMIT 1`,
		model.ArchiveStatusPending, model.ArchiveStatusFailed, time.Now().UTC(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting next pending archive: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE archives SET status = ?, last_attempt_at = ? WHERE id = ?`,
		model.ArchiveStatusProcessing, now, id,
	); err != nil {
		return nil, fmt.Errorf("claiming archive %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim of archive %d: %w", id, err)
	}

	return s.GetArchive(ctx, id)
}

// CompleteArchive transitions archiveID to complete and writes the
// captured title/author/text/classification/keys, per §4.4 step 7.
func (s *Store) CompleteArchive(ctx context.Context, archiveID int64, a model.Archive) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ?, title = ?, author = ?, extracted_text = ?, published_at = ?, content_class = ?,
		 primary_key_path = ?, thumbnail_key = ?, nsfw = ?, nsfw_source = ?, last_error = ''
		 WHERE id = ?`,
		model.ArchiveStatusComplete, a.Title, a.Author, a.ExtractedText, a.PublishedAt, a.ContentClass,
		a.PrimaryKey, a.ThumbnailKey, boolToInt(a.NSFW), a.NSFWSource, archiveID,
	)
	if err != nil {
		return fmt.Errorf("completing archive %d: %w", archiveID, err)
	}
	return nil
}

// RecordSubmitterURLs stamps whichever third-party snapshot URLs were
// returned for an archive (§4.4 step 8); empty strings leave a column
// untouched so a submitter that wasn't enabled doesn't clobber a prior run.
func (s *Store) RecordSubmitterURLs(ctx context.Context, archiveID int64, waybackURL, archiveTodayURL string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET
		   wayback_url = CASE WHEN ? != '' THEN ? ELSE wayback_url END,
		   archive_today_url = CASE WHEN ? != '' THEN ? ELSE archive_today_url END
		 WHERE id = ?`,
		waybackURL, waybackURL, archiveTodayURL, archiveTodayURL, archiveID,
	)
	if err != nil {
		return fmt.Errorf("recording submitter urls for archive %d: %w", archiveID, err)
	}
	return nil
}

// FailArchive records a transient failure: increments retry_count, sets
// next_retry_at to now+backoff, and reverts status to failed. retry_count
// is never reset across subsequent retries, following
// original_source/src/db/queries.rs's reset_archive_for_retry.
func (s *Store) FailArchive(ctx context.Context, archiveID int64, errMsg string, nextRetryAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ?, retry_count = retry_count + 1, next_retry_at = ?, last_error = ? WHERE id = ?`,
		model.ArchiveStatusFailed, nextRetryAt, errMsg, archiveID,
	)
	if err != nil {
		return fmt.Errorf("failing archive %d: %w", archiveID, err)
	}
	return nil
}

// ReenqueueFailed moves a failed archive whose next_retry_at has matured
// back to pending, leaving retry_count untouched, so the normal claim
// query can pick it up again.
func (s *Store) ReenqueueFailed(ctx context.Context, archiveID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ? WHERE id = ? AND status = ?`,
		model.ArchiveStatusPending, archiveID, model.ArchiveStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("reenqueuing archive %d: %w", archiveID, err)
	}
	return nil
}

// SkipArchive marks an archive permanently skipped (permanent error, or
// retry_count has reached the configured maximum).
func (s *Store) SkipArchive(ctx context.Context, archiveID int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ?, last_error = ? WHERE id = ?`,
		model.ArchiveStatusSkipped, errMsg, archiveID,
	)
	if err != nil {
		return fmt.Errorf("skipping archive %d: %w", archiveID, err)
	}
	return nil
}

// RequireAuth marks an archive auth_required. Per §4.4, this does not
// increment the retry counter; only an explicit operator reset re-enqueues
// it (see ResetAuthRequired).
func (s *Store) RequireAuth(ctx context.Context, archiveID int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ?, last_error = ? WHERE id = ?`,
		model.ArchiveStatusAuthRequired, errMsg, archiveID,
	)
	if err != nil {
		return fmt.Errorf("marking archive %d auth_required: %w", archiveID, err)
	}
	return nil
}

// ResetAuthRequired moves one auth_required archive back to pending, for
// the `reset-auth` CLI subcommand.
func (s *Store) ResetAuthRequired(ctx context.Context, archiveID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ?, next_retry_at = NULL WHERE id = ? AND status = ?`,
		model.ArchiveStatusPending, archiveID, model.ArchiveStatusAuthRequired,
	)
	if err != nil {
		return fmt.Errorf("resetting archive %d from auth_required: %w", archiveID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking reset result for archive %d: %w", archiveID, err)
	}
	if n == 0 {
		return fmt.Errorf("archive %d is not in auth_required", archiveID)
	}
	return nil
}

// RecoverOnStartup resets every archive left in processing (stale due to a
// crash) back to pending, per §4.4's startup recovery contract and
// original_source/src/archiver/worker.rs's recover_on_startup.
func (s *Store) RecoverOnStartup(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE archives SET status = ? WHERE status = ?`,
		model.ArchiveStatusPending, model.ArchiveStatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("recovering stale processing archives: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting recovered archives: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of archives per status, for the
// `status` CLI subcommand.
func (s *Store) CountByStatus(ctx context.Context) (map[model.ArchiveStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM archives GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting archives by status: %w", err)
	}
	defer rows.Close()

	out := make(map[model.ArchiveStatus]int)
	for rows.Next() {
		var status model.ArchiveStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count row: %w", err)
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return out, nil
}
