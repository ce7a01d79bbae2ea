package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/model"
)

var instagramHostPattern = regexp.MustCompile(`(?i)(^|\.)instagram\.com$`)

// InstagramHandler tries video capture first (reels/IGTV); falls back to
// the gallery-capture capability for carousel/image posts.
type InstagramHandler struct{}

func (h *InstagramHandler) ID() string { return "instagram" }

func (h *InstagramHandler) Matches(rawURL string) bool {
	return instagramHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *InstagramHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	out, err := videoCapture(ctx, "instagram", rawURL, workDir, deps)
	if err == nil {
		return out, nil
	}

	var vidErr *capture.VideoCaptureError
	if !isKind(err, &vidErr, "empty_output", "unsupported_url") {
		return nil, err
	}
	return galleryCapture(ctx, "instagram", rawURL, workDir, deps)
}

func (h *InstagramHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
