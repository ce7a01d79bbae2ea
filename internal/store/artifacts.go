package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// InsertArtifact records one stored file produced for an archive. Mirrors
// the teacher's pkg/db/operations.go InsertArtifact upsert shape, keyed
// here by (archive_id, kind, object_key) per the migration's unique index.
func (s *Store) InsertArtifact(ctx context.Context, a *model.Artifact) error {
	var videoFileID sql.NullInt64
	if a.VideoFileID != nil {
		videoFileID = sql.NullInt64{Int64: *a.VideoFileID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (archive_id, kind, object_key, content_type, size_bytes, content_hash, perceptual_hash, video_file_id, metadata_yaml, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (archive_id, kind, object_key) DO UPDATE SET
		   content_type = excluded.content_type, size_bytes = excluded.size_bytes,
		   content_hash = excluded.content_hash, perceptual_hash = excluded.perceptual_hash,
		   video_file_id = excluded.video_file_id, metadata_yaml = excluded.metadata_yaml`,
		a.ArchiveID, a.Kind, a.ObjectKey, a.ContentType, a.SizeBytes, a.ContentHash, a.PerceptualHash, videoFileID, a.MetadataYAML, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting artifact %s for archive %d: %w", a.Kind, a.ArchiveID, err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		a.ID = id
	}
	return nil
}

// ArtifactsForArchive lists every artifact recorded for an archive.
func (s *Store) ArtifactsForArchive(ctx context.Context, archiveID int64) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive_id, kind, object_key, content_type, size_bytes, content_hash, perceptual_hash, video_file_id, metadata_yaml, created_at
		 FROM artifacts WHERE archive_id = ?`, archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts for archive %d: %w", archiveID, err)
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		var videoFileID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ArchiveID, &a.Kind, &a.ObjectKey, &a.ContentType, &a.SizeBytes, &a.ContentHash, &a.PerceptualHash, &videoFileID, &a.MetadataYAML, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		if videoFileID.Valid {
			a.VideoFileID = &videoFileID.Int64
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts for archive %d: %w", archiveID, err)
	}
	return out, nil
}

// ImageArtifactsForLink lists every image artifact recorded against any
// archive of linkID, the candidate set the worker's perceptual-hash dedup
// check scans before uploading a newly captured image.
func (s *Store) ImageArtifactsForLink(ctx context.Context, linkID int64, kind model.ArtifactKind) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.archive_id, a.kind, a.object_key, a.content_type, a.size_bytes, a.content_hash, a.perceptual_hash, a.video_file_id, a.metadata_yaml, a.created_at
		 FROM artifacts a JOIN archives ar ON ar.id = a.archive_id
		 WHERE ar.link_id = ? AND a.kind = ? AND a.perceptual_hash != ''`, linkID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("listing image artifacts for link %d: %w", linkID, err)
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		var videoFileID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ArchiveID, &a.Kind, &a.ObjectKey, &a.ContentType, &a.SizeBytes, &a.ContentHash, &a.PerceptualHash, &videoFileID, &a.MetadataYAML, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning image artifact row: %w", err)
		}
		if videoFileID.Valid {
			a.VideoFileID = &videoFileID.Int64
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating image artifacts for link %d: %w", linkID, err)
	}
	return out, nil
}

// GetVideoFile looks up a deduplicated video by its (platform, video_id)
// identity, the key used by §4.4 step 6's dedup check.
func (s *Store) GetVideoFile(ctx context.Context, platform, videoID string) (*model.VideoFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, platform, video_id, object_key, meta_key, size_bytes, content_type, duration_secs, created_at
		 FROM video_files WHERE platform = ? AND video_id = ?`, platform, videoID,
	)
	var v model.VideoFile
	var durationSecs int64
	err := row.Scan(&v.ID, &v.Platform, &v.VideoID, &v.ObjectKey, &v.MetaKey, &v.SizeBytes, &v.ContentType, &durationSecs, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning video file (%s, %s): %w", platform, videoID, err)
	}
	v.Duration = time.Duration(durationSecs) * time.Second
	return &v, nil
}

// InsertVideoFile records a newly uploaded canonical video blob. Callers
// must first check GetVideoFile to preserve the at-most-one-object
// invariant for (platform, video_id).
func (s *Store) InsertVideoFile(ctx context.Context, v *model.VideoFile) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO video_files (platform, video_id, object_key, meta_key, size_bytes, content_type, duration_secs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Platform, v.VideoID, v.ObjectKey, v.MetaKey, v.SizeBytes, v.ContentType, int64(v.Duration.Seconds()), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting video file (%s, %s): %w", v.Platform, v.VideoID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted video file id: %w", err)
	}
	v.ID = id
	return nil
}
