package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

var blueskyHostPattern = regexp.MustCompile(`(?i)(^|\.)bsky\.app$`)
var blueskyPathPattern = regexp.MustCompile(`^/profile/([^/]+)/post/([^/]+)$`)

// bskyPostThreadResponse is the minimal shape of
// app.bsky.feed.getPostThread's response the handler needs.
type bskyPostThreadResponse struct {
	Thread struct {
		Post struct {
			Author struct {
				Handle      string `json:"handle"`
				DisplayName string `json:"displayName"`
			} `json:"author"`
			Record struct {
				Text      string `json:"text"`
				CreatedAt string `json:"createdAt"`
			} `json:"record"`
		} `json:"post"`
	} `json:"thread"`
}

// BlueskyHandler talks to the AT Protocol's public, unauthenticated
// getPostThread endpoint rather than scraping the web app (§4.5: "talks
// to a typed HTTP API rather than a scraper").
type BlueskyHandler struct{}

func (h *BlueskyHandler) ID() string { return "bluesky" }

func (h *BlueskyHandler) Matches(rawURL string) bool {
	return blueskyHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *BlueskyHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	handle, rkey, err := parseBlueskyPostURL(rawURL)
	if err != nil {
		return (&GenericHandler{}).Archive(ctx, rawURL, workDir, deps)
	}

	atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", handle, rkey)
	apiURL := fmt.Sprintf("https://public.api.bsky.app/xrpc/app.bsky.feed.getPostThread?uri=%s", atURI)

	body, err := deps.HTTP.GetBytes(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("fetching bluesky post thread for %q: %w", rawURL, err)
	}

	var thread bskyPostThreadResponse
	if err := json.Unmarshal(body, &thread); err != nil {
		return nil, fmt.Errorf("parsing bluesky post thread for %q: %w", rawURL, err)
	}

	metaPath := filepath.Join(workDir, "post.json")
	if err := os.WriteFile(metaPath, body, 0o644); err != nil {
		return nil, fmt.Errorf("saving bluesky post json for %q: %w", rawURL, err)
	}

	return &model.Capture{
		PrimaryPath:  metaPath,
		Title:        thread.Thread.Post.Record.Text,
		Author:       displayNameOr(thread.Thread.Post.Author.DisplayName, thread.Thread.Post.Author.Handle),
		ContentClass: model.ContentText,
		Platform:     "bluesky",
		CapturedAt:   time.Now().UTC(),
	}, nil
}

func parseBlueskyPostURL(rawURL string) (handle, rkey string, err error) {
	u, parseErr := parseURLPath(rawURL)
	if parseErr != nil {
		return "", "", parseErr
	}
	m := blueskyPathPattern.FindStringSubmatch(u)
	if len(m) != 3 {
		return "", "", fmt.Errorf("not a bluesky post URL: %q", rawURL)
	}
	return m[1], m[2], nil
}

func displayNameOr(displayName, handle string) string {
	if displayName != "" {
		return displayName
	}
	return handle
}

func (h *BlueskyHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
