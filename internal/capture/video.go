// Package capture wraps the external tools named in spec §6.3 as typed
// Go capabilities: video (yt-dlp), gallery (gallery-dl), and browser
// (playwright). Subprocess invocation — stdout/stderr piping, a hard
// timeout, and an unconditional kill-on-expiry cleanup — is grounded on
// other_examples/hackclub-arker__main.go's YTArchiver, adapted from
// streaming stdout to writing files into the archive's isolated temp
// directory, since spec §4.4 step 2 requires one working directory per
// archive rather than a single piped stream.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// VideoQuality is the adaptive quality policy chosen before download,
// per spec §4.5's "Key decisions" paragraph.
type VideoQuality struct {
	FormatSelector string // yt-dlp -f selector
	MaxHeight      int    // 0 = unconstrained
}

// ChooseVideoQuality implements the adaptive policy: short videos keep
// native resolution up to 1080p; long+low-bitrate caps at 1080p;
// long+normal-bitrate caps at 720p.
func ChooseVideoQuality(durationSecs int, avgBitrateKBps float64) VideoQuality {
	const shortThresholdSecs = 600 // 10 minutes
	const lowBitrateKBps = 500.0

	switch {
	case durationSecs <= shortThresholdSecs:
		return VideoQuality{FormatSelector: "bestvideo[height<=1080]+bestaudio/best[height<=1080]", MaxHeight: 1080}
	case avgBitrateKBps < lowBitrateKBps:
		return VideoQuality{FormatSelector: "bestvideo[height<=1080]+bestaudio/best[height<=1080]", MaxHeight: 1080}
	default:
		return VideoQuality{FormatSelector: "bestvideo[height<=720]+bestaudio/best[height<=720]", MaxHeight: 720}
	}
}

// VideoMetadata is the subset of yt-dlp's metadata JSON the pipeline
// cares about.
type VideoMetadata struct {
	ID          string  `json:"id"`
	Extractor   string  `json:"extractor_key"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date"`
	Description string  `json:"description"`
	AgeLimit    int     `json:"age_limit"`
	TBR         float64 `json:"tbr"` // average total bitrate, kbps
}

// VideoResult is what a successful video capture produced on disk.
type VideoResult struct {
	VideoPath     string
	ThumbnailPath string
	SubtitlePaths []string
	Metadata      VideoMetadata
	CommentsPath  string
}

// VideoCaptureError classifies a video-capture failure per §6.3.1's
// failure-kind list, so internal/worker can map it onto the Archive
// state-machine's error taxonomy (§7) without re-parsing tool output.
type VideoCaptureError struct {
	Kind   string // auth_required, age_restricted, unsupported_url, network, timeout, over_duration_limit, empty_output
	Detail string
}

func (e *VideoCaptureError) Error() string {
	return fmt.Sprintf("video capture (%s): %s", e.Kind, e.Detail)
}

// FetchVideoMetadata runs yt-dlp in metadata-only mode (spec §4.5: "fetch
// metadata-only once" before choosing quality).
func FetchVideoMetadata(ctx context.Context, url string, timeout time.Duration) (VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "yt-dlp", "--dump-json", "--no-playlist", "--skip-download", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return VideoMetadata{}, classifyYtDlpError(stderr.String(), err)
	}

	var meta VideoMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return VideoMetadata{}, fmt.Errorf("parsing yt-dlp metadata for %q: %w", url, err)
	}
	return meta, nil
}

// DownloadVideo runs yt-dlp to download the video plus subtitles/thumbnail
// into workDir, wrapped in a hard timeout per spec §5 ("every subprocess
// has a wall-clock timeout").
func DownloadVideo(ctx context.Context, url, workDir string, quality VideoQuality, subtitleLangs []string, cookiesFile string, timeout time.Duration) (*VideoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outputTemplate := filepath.Join(workDir, "video.%(ext)s")
	args := []string{
		"-f", quality.FormatSelector,
		"--no-playlist",
		"--write-thumbnail",
		"--write-info-json",
		"-o", outputTemplate,
	}
	if len(subtitleLangs) > 0 {
		args = append(args, "--write-subs", "--sub-langs", strings.Join(subtitleLangs, ","), "--convert-subs", "srt")
	}
	if cookiesFile != "" {
		args = append(args, "--cookies", cookiesFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &VideoCaptureError{Kind: "timeout", Detail: stderr.String()}
		}
		return nil, classifyYtDlpError(stderr.String(), err)
	}

	return collectVideoOutputs(workDir)
}

func collectVideoOutputs(workDir string) (*VideoResult, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("reading work dir %q: %w", workDir, err)
	}

	result := &VideoResult{}
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(workDir, name)
		switch {
		case strings.HasPrefix(name, "video.") && strings.HasSuffix(name, ".info.json"):
			data, err := os.ReadFile(full)
			if err == nil {
				_ = json.Unmarshal(data, &result.Metadata)
			}
		case strings.HasPrefix(name, "video.") && (strings.HasSuffix(name, ".srt") || strings.HasSuffix(name, ".vtt")):
			result.SubtitlePaths = append(result.SubtitlePaths, full)
		case strings.HasPrefix(name, "video.") && isImageExt(name):
			result.ThumbnailPath = full
		case strings.HasPrefix(name, "video.") && isVideoExt(name):
			result.VideoPath = full
		}
	}

	if result.VideoPath == "" {
		return nil, &VideoCaptureError{Kind: "empty_output", Detail: "yt-dlp produced no video file"}
	}
	return result, nil
}

func isVideoExt(name string) bool {
	for _, ext := range []string{".mp4", ".webm", ".mkv", ".m4v"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isImageExt(name string) bool {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func classifyYtDlpError(stderr string, err error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "sign in") || strings.Contains(lower, "login required") || strings.Contains(lower, "private video"):
		return &VideoCaptureError{Kind: "auth_required", Detail: stderr}
	case strings.Contains(lower, "age"):
		return &VideoCaptureError{Kind: "age_restricted", Detail: stderr}
	case strings.Contains(lower, "unsupported url"):
		return &VideoCaptureError{Kind: "unsupported_url", Detail: stderr}
	case strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout"):
		return &VideoCaptureError{Kind: "timeout", Detail: stderr}
	default:
		return &VideoCaptureError{Kind: "network", Detail: fmt.Sprintf("%v: %s", err, stderr)}
	}
}
