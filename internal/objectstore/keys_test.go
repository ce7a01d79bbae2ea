package objectstore

import "testing"

func TestArchiveKey(t *testing.T) {
	got := ArchiveKey(42, "screenshot.png")
	want := "archives/42/screenshot.png"
	if got != want {
		t.Errorf("ArchiveKey() = %q, want %q", got, want)
	}
}

func TestVideoKey(t *testing.T) {
	got := VideoKey("abc123", "mp4")
	want := "videos/abc123.mp4"
	if got != want {
		t.Errorf("VideoKey() = %q, want %q", got, want)
	}
}

func TestVideoMetaKey(t *testing.T) {
	got := VideoMetaKey("abc123")
	want := "videos/abc123.json"
	if got != want {
		t.Errorf("VideoMetaKey() = %q, want %q", got, want)
	}
}

func TestBackupKey(t *testing.T) {
	got := BackupKey("20260101T000000Z")
	want := "backups/db/archive_20260101T000000Z.sqlite.zst"
	if got != want {
		t.Errorf("BackupKey() = %q, want %q", got, want)
	}
}
