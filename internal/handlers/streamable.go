package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

var streamableHostPattern = regexp.MustCompile(`(?i)(^|\.)streamable\.com$`)
var streamableIDPattern = regexp.MustCompile(`streamable\.com/([A-Za-z0-9]+)`)

// StreamableHandler delegates to the video-capture capability; the video
// id falls back to the path segment when yt-dlp's metadata omits one.
type StreamableHandler struct{}

func (h *StreamableHandler) ID() string { return "streamable" }

func (h *StreamableHandler) Matches(rawURL string) bool {
	return streamableHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *StreamableHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	out, err := videoCapture(ctx, "streamable", rawURL, workDir, deps)
	if err != nil {
		return nil, err
	}
	if out.VideoID == "" {
		out.VideoID = firstMatch(streamableIDPattern, rawURL)
	}
	return out, nil
}

func (h *StreamableHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
