package store

import (
	"context"
	"fmt"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// StartJobStep opens an Archive Job Step audit-trail row for one capture
// sub-step (metadata fetch, download, screenshot, ...), grounded on
// original_source/src/archiver/worker.rs's start_job/complete_job/fail_job
// trio, collapsed into start + finish here since Go's defer makes a
// separate "fail" call for every error path unnecessary.
func (s *Store) StartJobStep(ctx context.Context, archiveID int64, jobType string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO archive_job_steps (archive_id, job_type, status, started_at) VALUES (?, ?, 'running', ?)`,
		archiveID, jobType, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("starting job step %s for archive %d: %w", jobType, archiveID, err)
	}
	return res.LastInsertId()
}

// FinishJobStep records the terminal status of a job step started with
// StartJobStep. errMsg is empty on success.
func (s *Store) FinishJobStep(ctx context.Context, stepID int64, status model.JobStepStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE archive_job_steps SET status = ?, ended_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errMsg, stepID,
	)
	if err != nil {
		return fmt.Errorf("finishing job step %d: %w", stepID, err)
	}
	return nil
}

// JobStepsForArchive lists every job step recorded for an archive, oldest
// first. The `status` CLI subcommand prints archive counts only and does
// not show job steps.
func (s *Store) JobStepsForArchive(ctx context.Context, archiveID int64) ([]model.JobStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive_id, job_type, status, started_at, ended_at, error FROM archive_job_steps WHERE archive_id = ? ORDER BY started_at ASC`,
		archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing job steps for archive %d: %w", archiveID, err)
	}
	defer rows.Close()

	var out []model.JobStep
	for rows.Next() {
		var j model.JobStep
		if err := rows.Scan(&j.ID, &j.ArchiveID, &j.JobType, &j.Status, &j.StartedAt, &j.EndedAt, &j.Error); err != nil {
			return nil, fmt.Errorf("scanning job step row: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job steps for archive %d: %w", archiveID, err)
	}
	return out, nil
}
