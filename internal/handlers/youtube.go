package handlers

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

var youtubeHostPattern = regexp.MustCompile(`(?i)(^|\.)(youtube\.com|youtu\.be)$`)

// YouTubeHandler delegates entirely to the video-capture capability; the
// platform video id it reports feeds the Video File dedup key (§3).
type YouTubeHandler struct{}

func (h *YouTubeHandler) ID() string { return "youtube" }

func (h *YouTubeHandler) Matches(rawURL string) bool {
	return youtubeHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *YouTubeHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	return videoCapture(ctx, "youtube", rawURL, workDir, deps)
}

// Normalize extends the shared rules with one YouTube-specific step: a
// watch URL's query string keeps only the v= video id, dropping playlist
// position (list, index) and timestamp (t) params that name the same
// video but would otherwise fracture its Link identity.
func (h *YouTubeHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	normalized, err := normalizeURL(ctx, rawURL, deps)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return normalized, nil
	}
	if v := u.Query().Get("v"); v != "" {
		q := url.Values{}
		q.Set("v", v)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return normalized, nil
}
