package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TouchSubmissionBucket increments a named submitter's rate bucket for the
// current window, resetting the window if it has expired. Returns the
// count after incrementing, so a caller can decide whether the window's
// quota is exhausted. internal/submitters does not call it: the submitters
// pace requests with in-memory golang.org/x/time/rate limiters only.
func (s *Store) TouchSubmissionBucket(ctx context.Context, submitter string, window time.Duration) (int, error) {
	now := time.Now().UTC()

	var windowStarted time.Time
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT window_started_at, submission_count FROM submission_rate_buckets WHERE submitter = ?`, submitter,
	).Scan(&windowStarted, &count)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO submission_rate_buckets (submitter, window_started_at, submission_count) VALUES (?, ?, 1)`,
			submitter, now,
		); err != nil {
			return 0, fmt.Errorf("initializing rate bucket for %s: %w", submitter, err)
		}
		return 1, nil
	case err != nil:
		return 0, fmt.Errorf("reading rate bucket for %s: %w", submitter, err)
	}

	if now.Sub(windowStarted) > window {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE submission_rate_buckets SET window_started_at = ?, submission_count = 1 WHERE submitter = ?`,
			now, submitter,
		); err != nil {
			return 0, fmt.Errorf("resetting rate bucket for %s: %w", submitter, err)
		}
		return 1, nil
	}

	count++
	if _, err := s.db.ExecContext(ctx,
		`UPDATE submission_rate_buckets SET submission_count = ? WHERE submitter = ?`,
		count, submitter,
	); err != nil {
		return 0, fmt.Errorf("incrementing rate bucket for %s: %w", submitter, err)
	}
	return count, nil
}

// TouchDomainRateLimit increments domain's outbound-request counter for
// the current one-minute window, resetting the window if it has expired,
// and reports whether the request is still within limit requests per
// window. This persists the Archive Worker Pool's per-domain request
// pacing across restarts, independent of the in-memory per-domain
// semaphore (internal/worker.Pool) that only bounds concurrency, not rate.
func (s *Store) TouchDomainRateLimit(ctx context.Context, domain string, window time.Duration, limit int) (bool, error) {
	now := time.Now().UTC()

	var windowStarted time.Time
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT window_started_at, request_count FROM domain_rate_limit_counters WHERE domain = ?`, domain,
	).Scan(&windowStarted, &count)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO domain_rate_limit_counters (domain, window_started_at, request_count) VALUES (?, ?, 1)`,
			domain, now,
		); err != nil {
			return false, fmt.Errorf("initializing rate counter for %s: %w", domain, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("reading rate counter for %s: %w", domain, err)
	}

	if now.Sub(windowStarted) > window {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE domain_rate_limit_counters SET window_started_at = ?, request_count = 1 WHERE domain = ?`,
			now, domain,
		); err != nil {
			return false, fmt.Errorf("resetting rate counter for %s: %w", domain, err)
		}
		return true, nil
	}

	count++
	if _, err := s.db.ExecContext(ctx,
		`UPDATE domain_rate_limit_counters SET request_count = ? WHERE domain = ?`,
		count, domain,
	); err != nil {
		return false, fmt.Errorf("incrementing rate counter for %s: %w", domain, err)
	}
	return count <= limit, nil
}
