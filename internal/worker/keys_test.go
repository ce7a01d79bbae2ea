package worker

import (
	"testing"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

func TestRelKeyFor(t *testing.T) {
	tests := []struct {
		kind model.ArtifactKind
		path string
		want string
	}{
		{model.ArtifactRawHTML, "/tmp/x/raw.html", "fetch/raw.html"},
		{model.ArtifactScreenshot, "/tmp/x/screenshot.png", "render/screenshot.png"},
		{model.ArtifactPDF, "/tmp/x/page.pdf", "render/page.pdf"},
		{model.ArtifactMHTML, "/tmp/x/complete.mhtml", "render/complete.mhtml"},
		{model.ArtifactSubtitles, "/tmp/x/video.en.srt", "media/subtitles/video.en.srt"},
		{model.ArtifactThumbnail, "/tmp/x/video.jpg", "media/thumb.jpg"},
		{model.ArtifactVideo, "/tmp/x/video.mp4", "media/video.mp4"},
	}
	for _, tt := range tests {
		if got := relKeyFor(tt.kind, tt.path); got != tt.want {
			t.Errorf("relKeyFor(%v, %q) = %q, want %q", tt.kind, tt.path, got, tt.want)
		}
	}
}

func TestPrimaryKindFor(t *testing.T) {
	tests := []struct {
		class model.ContentClass
		want  model.ArtifactKind
	}{
		{model.ContentVideo, model.ArtifactVideo},
		{model.ContentImage, model.ArtifactImage},
		{model.ContentGallery, model.ArtifactImage},
		{model.ContentText, model.ArtifactRawHTML},
	}
	for _, tt := range tests {
		if got := primaryKindFor(tt.class); got != tt.want {
			t.Errorf("primaryKindFor(%v) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestTrimDot(t *testing.T) {
	if got := trimDot(".mp4"); got != "mp4" {
		t.Errorf("trimDot(.mp4) = %q, want mp4", got)
	}
	if got := trimDot(""); got != "" {
		t.Errorf("trimDot(\"\") = %q, want empty", got)
	}
}
