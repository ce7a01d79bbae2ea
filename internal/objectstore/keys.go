package objectstore

import (
	"bytes"
	"fmt"
)

func newByteReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

// ArchiveKey builds one of the stable object keys under an archive's
// namespace, matching the layout in spec §4.6 exactly
// (archives/{archive_id}/...).
func ArchiveKey(archiveID int64, rel string) string {
	return fmt.Sprintf("archives/%d/%s", archiveID, rel)
}

// VideoKey builds the canonical, deduplicated video object key.
func VideoKey(videoID, ext string) string {
	return fmt.Sprintf("videos/%s.%s", videoID, ext)
}

// VideoMetaKey builds the canonical video's sidecar metadata key.
func VideoMetaKey(videoID string) string {
	return fmt.Sprintf("videos/%s.json", videoID)
}

// BackupKey builds a timestamped database backup key.
func BackupKey(timestamp string) string {
	return fmt.Sprintf("backups/db/archive_%s.sqlite.zst", timestamp)
}
