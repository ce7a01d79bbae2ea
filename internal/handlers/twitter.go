package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/model"
)

var twitterHostPattern = regexp.MustCompile(`(?i)(^|\.)(twitter\.com|x\.com)$`)

// TwitterHandler tries the video-capture capability first (yt-dlp
// supports embedded video tweets); a tweet with no video is archived as
// text through the generic handler instead.
type TwitterHandler struct{}

func (h *TwitterHandler) ID() string { return "twitter" }

func (h *TwitterHandler) Matches(rawURL string) bool {
	return twitterHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *TwitterHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	out, err := videoCapture(ctx, "twitter", rawURL, workDir, deps)
	if err == nil {
		return out, nil
	}

	var vidErr *capture.VideoCaptureError
	if !isKind(err, &vidErr, "empty_output", "unsupported_url") {
		return nil, err
	}

	generic := &GenericHandler{}
	return generic.Archive(ctx, rawURL, workDir, deps)
}

func isKind(err error, target **capture.VideoCaptureError, kinds ...string) bool {
	ve, ok := err.(*capture.VideoCaptureError)
	if !ok {
		return false
	}
	*target = ve
	for _, k := range kinds {
		if ve.Kind == k {
			return true
		}
	}
	return false
}

func (h *TwitterHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
