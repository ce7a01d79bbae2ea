package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/model"
)

var imgurHostPattern = regexp.MustCompile(`(?i)(^|\.)(imgur\.com|i\.imgur\.com)$`)
var imgurIDPattern = regexp.MustCompile(`imgur\.com/(?:a/|gallery/)?([A-Za-z0-9]+)`)

// ImgurHandler treats every post as a gallery capture (single images are
// a one-image gallery); falls back to video capture for imgur's GIFV/MP4
// conversions.
type ImgurHandler struct{}

func (h *ImgurHandler) ID() string { return "imgur" }

func (h *ImgurHandler) Matches(rawURL string) bool {
	return imgurHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *ImgurHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	out, err := galleryCapture(ctx, "imgur", rawURL, workDir, deps)
	if err == nil {
		out.VideoID = firstMatch(imgurIDPattern, rawURL)
		return out, nil
	}

	var galErr *capture.VideoCaptureError
	if !isKind(err, &galErr, "empty_output") {
		return nil, err
	}
	return videoCapture(ctx, "imgur", rawURL, workDir, deps)
}

func (h *ImgurHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
