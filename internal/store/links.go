package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// UpsertLink inserts a Link by its normalized URL, or returns the existing
// row. The normalized_url unique constraint is the Link-uniqueness
// invariant; this function is the single place that enforces it.
func (s *Store) UpsertLink(ctx context.Context, normalizedURL, rawURL, finalURL, domain string) (*model.Link, bool, error) {
	existing, err := s.GetLinkByNormalizedURL(ctx, normalizedURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO links (normalized_url, raw_url, final_url, domain, first_seen_at)
		 VALUES (?, ?, ?, ?, ?)`,
		normalizedURL, rawURL, finalURL, domain, time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("inserting link %q: %w", normalizedURL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("reading inserted link id: %w", err)
	}

	return &model.Link{
		ID:            id,
		NormalizedURL: normalizedURL,
		RawURL:        rawURL,
		FinalURL:      finalURL,
		Domain:        domain,
		FirstSeenAt:   time.Now().UTC(),
	}, true, nil
}

// GetLinkByNormalizedURL looks up a Link by its canonical identity.
func (s *Store) GetLinkByNormalizedURL(ctx context.Context, normalizedURL string) (*model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, normalized_url, raw_url, final_url, domain, first_seen_at, last_archived_at
		 FROM links WHERE normalized_url = ?`, normalizedURL,
	)
	return scanLink(row)
}

// GetLink looks up a Link by id.
func (s *Store) GetLink(ctx context.Context, id int64) (*model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, normalized_url, raw_url, final_url, domain, first_seen_at, last_archived_at
		 FROM links WHERE id = ?`, id,
	)
	return scanLink(row)
}

func scanLink(row *sql.Row) (*model.Link, error) {
	var l model.Link
	var lastArchived sql.NullTime
	err := row.Scan(&l.ID, &l.NormalizedURL, &l.RawURL, &l.FinalURL, &l.Domain, &l.FirstSeenAt, &lastArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning link row: %w", err)
	}
	if lastArchived.Valid {
		l.LastArchivedAt = &lastArchived.Time
	}
	return &l, nil
}

// MarkLinkArchived stamps a Link's last_archived_at, used when an Archive
// transitions to complete.
func (s *Store) MarkLinkArchived(ctx context.Context, linkID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE links SET last_archived_at = ? WHERE id = ?`, time.Now().UTC(), linkID)
	if err != nil {
		return fmt.Errorf("marking link %d archived: %w", linkID, err)
	}
	return nil
}

// InsertOccurrence records one sighting of a Link inside a Post.
func (s *Store) InsertOccurrence(ctx context.Context, o *model.LinkOccurrence) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO link_occurrences (post_id, link_id, in_quote, snippet, seen_at) VALUES (?, ?, ?, ?, ?)`,
		o.PostID, o.LinkID, boolToInt(o.InQuote), o.Snippet, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting occurrence for link %d: %w", o.LinkID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted occurrence id: %w", err)
	}
	o.ID = id
	return nil
}

// AllOccurrencesInQuote reports whether every known Occurrence for linkID
// has InQuote = true, and whether the link has at least one completed
// Archive — together these drive the quote-only skip policy (§4.2 step 5).
func (s *Store) AllOccurrencesInQuote(ctx context.Context, linkID int64) (allInQuote, hasCompletedArchive bool, err error) {
	var nonQuoteCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM link_occurrences WHERE link_id = ? AND in_quote = 0`, linkID,
	).Scan(&nonQuoteCount); err != nil {
		return false, false, fmt.Errorf("counting non-quote occurrences for link %d: %w", linkID, err)
	}

	var completedCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM archives WHERE link_id = ? AND status = ?`, linkID, model.ArchiveStatusComplete,
	).Scan(&completedCount); err != nil {
		return false, false, fmt.Errorf("counting completed archives for link %d: %w", linkID, err)
	}

	return nonQuoteCount == 0, completedCount > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
