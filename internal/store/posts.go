package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// UpsertPost inserts a new Post keyed by ForumID, or updates it in place
// when the content hash has changed (an edit). It reports whether the row
// was new and whether the body changed, so callers can decide whether to
// run link extraction.
func (s *Store) UpsertPost(ctx context.Context, p *model.Post) (isNew bool, changed bool, err error) {
	existing, err := s.GetPostByForumID(ctx, p.ForumID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, false, err
	}

	if errors.Is(err, ErrNotFound) {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO posts (forum_id, author, title, original_url, body_html, content_hash, published_at, processed_at, thread_id, thread_pos)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ForumID, p.Author, p.Title, p.OriginalURL, p.BodyHTML, p.ContentHash, p.PublishedAt, time.Now().UTC(), p.ThreadID, p.ThreadPos,
		)
		if err != nil {
			return false, false, fmt.Errorf("inserting post %q: %w", p.ForumID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, false, fmt.Errorf("reading inserted post id: %w", err)
		}
		p.ID = id
		return true, true, nil
	}

	p.ID = existing.ID
	if existing.ContentHash == p.ContentHash {
		return false, false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE posts SET author = ?, title = ?, body_html = ?, content_hash = ?, processed_at = ?, thread_id = ?, thread_pos = ?
		 WHERE id = ?`,
		p.Author, p.Title, p.BodyHTML, p.ContentHash, time.Now().UTC(), p.ThreadID, p.ThreadPos, p.ID,
	); err != nil {
		return false, false, fmt.Errorf("updating edited post %q: %w", p.ForumID, err)
	}

	return false, true, nil
}

// GetPostByForumID looks up a Post by its forum-assigned id.
func (s *Store) GetPostByForumID(ctx context.Context, forumID string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, forum_id, author, title, original_url, body_html, content_hash, published_at, processed_at, thread_id, thread_pos
		 FROM posts WHERE forum_id = ?`, forumID,
	)
	return scanPost(row)
}

func scanPost(row *sql.Row) (*model.Post, error) {
	var p model.Post
	var published sql.NullTime
	err := row.Scan(&p.ID, &p.ForumID, &p.Author, &p.Title, &p.OriginalURL, &p.BodyHTML, &p.ContentHash, &published, &p.ProcessedAt, &p.ThreadID, &p.ThreadPos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post row: %w", err)
	}
	if published.Valid {
		p.PublishedAt = published.Time
	}
	return &p, nil
}
