package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/model"
	"github.com/forumarchiver/forumarchiver/internal/urlnormalize"
)

// normalizeURL runs the shared normalization rules (§4.3). Handlers with
// no extra canonicalization of their own use this directly as their
// Normalize method.
func normalizeURL(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return urlnormalize.Normalize(ctx, rawURL, deps.HTTP)
}

// hostOf returns the host of rawURL as written (case is not changed), or ""
// if it doesn't parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// parseURLPath returns rawURL's path component.
func parseURLPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	return u.Path, nil
}

// videoCapture runs the shared video-capture capability (§6.3.1):
// metadata-only fetch, adaptive quality choice, then download. Every
// handler that delegates to yt-dlp goes through this one path so the
// quality policy and failure classification stay in one place.
func videoCapture(ctx context.Context, platform, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	meta, err := capture.FetchVideoMetadata(ctx, rawURL, deps.Config.YouTubeDownloadTimeout)
	if err != nil {
		return nil, err
	}

	maxDuration := deps.Config.YouTubeMaxDuration.Seconds()
	if maxDuration > 0 && meta.Duration > maxDuration {
		return nil, &capture.VideoCaptureError{Kind: "over_duration_limit", Detail: fmt.Sprintf("duration %.0fs exceeds limit %.0fs", meta.Duration, maxDuration)}
	}

	quality := capture.ChooseVideoQuality(int(meta.Duration), meta.TBR/8)
	result, err := capture.DownloadVideo(ctx, rawURL, workDir, quality, deps.Config.SubtitleLangs, deps.CookiesFile, deps.Config.YouTubeDownloadTimeout)
	if err != nil {
		return nil, err
	}

	out := &model.Capture{
		PrimaryPath:   result.VideoPath,
		ThumbnailPath: result.ThumbnailPath,
		Title:         meta.Title,
		Author:        meta.Uploader,
		Description:   meta.Description,
		ContentClass:  model.ContentVideo,
		Platform:      platform,
		VideoID:       meta.ID,
		NSFW:          meta.AgeLimit >= 18,
		CapturedAt:    time.Now().UTC(),
	}
	if out.NSFW {
		out.NSFWSource = "yt-dlp age_limit"
	}
	if blob, err := yaml.Marshal(result.Metadata); err == nil {
		out.MetadataYAML = string(blob)
	}
	for _, sub := range result.SubtitlePaths {
		out.ExtraFiles = append(out.ExtraFiles, model.CaptureFile{Path: sub, Kind: model.ArtifactSubtitles})
	}
	if result.CommentsPath != "" {
		out.ExtraFiles = append(out.ExtraFiles, model.CaptureFile{Path: result.CommentsPath, Kind: model.ArtifactComments})
	}
	return out, nil
}

// galleryCapture runs the shared gallery-capture capability (§6.3.2).
func galleryCapture(ctx context.Context, platform, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	result, err := capture.DownloadGallery(ctx, rawURL, workDir, deps.CookiesFile, deps.Config.YouTubeDownloadTimeout)
	if err != nil {
		return nil, err
	}

	out := &model.Capture{
		PrimaryPath:  result.PrimaryImage,
		Platform:     platform,
		ContentClass: model.ContentGallery,
		CapturedAt:   time.Now().UTC(),
	}
	if len(result.ImagePaths) == 1 {
		out.ContentClass = model.ContentImage
	}
	for _, img := range result.ImagePaths {
		if img == result.PrimaryImage {
			continue
		}
		out.ExtraFiles = append(out.ExtraFiles, model.CaptureFile{Path: img, Kind: model.ArtifactImage})
	}
	return out, nil
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

