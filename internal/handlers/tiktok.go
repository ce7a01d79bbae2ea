package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

var tiktokHostPattern = regexp.MustCompile(`(?i)(^|\.)(tiktok\.com|vm\.tiktok\.com)$`)

// TikTokHandler delegates to the video-capture capability; yt-dlp
// supports TikTok natively so no site-specific scraping is needed.
type TikTokHandler struct{}

func (h *TikTokHandler) ID() string { return "tiktok" }

func (h *TikTokHandler) Matches(rawURL string) bool {
	return tiktokHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *TikTokHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	out, err := videoCapture(ctx, "tiktok", rawURL, workDir, deps)
	if err != nil {
		return nil, err
	}
	out.NSFW = out.NSFW || strings.Contains(strings.ToLower(out.Description), "nsfw")
	if out.NSFW && out.NSFWSource == "" {
		out.NSFWSource = "description keyword"
	}
	return out, nil
}

func (h *TikTokHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
