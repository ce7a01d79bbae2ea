package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

var redditHostPattern = regexp.MustCompile(`(?i)(^|\.)(reddit\.com|redd\.it)$`)

// redditListing is the minimal shape of Reddit's public `.json` post
// listing the handler needs: whether the post carries a media payload,
// and the NSFW flag.
type redditListing []struct {
	Data struct {
		Children []struct {
			Data struct {
				IsVideo   bool   `json:"is_video"`
				Over18    bool   `json:"over_18"`
				Subreddit string `json:"subreddit"`
				PostHint  string `json:"post_hint"`
				URL       string `json:"url"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditHandler inspects the post's JSON before deciding whether to
// invoke the video-capture capability (§4.5: "Reddit only invokes the
// video capture when a media payload is detected in the post JSON").
type RedditHandler struct{}

func (h *RedditHandler) ID() string { return "reddit" }

func (h *RedditHandler) Matches(rawURL string) bool {
	return redditHostPattern.MatchString(strings.ToLower(hostOf(rawURL)))
}

func (h *RedditHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	jsonURL := strings.TrimRight(rawURL, "/") + ".json"
	body, err := deps.HTTP.GetBytes(ctx, jsonURL)
	if err != nil {
		return (&GenericHandler{}).Archive(ctx, rawURL, workDir, deps)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil || len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		return (&GenericHandler{}).Archive(ctx, rawURL, workDir, deps)
	}
	post := listing[0].Data.Children[0].Data

	var out *model.Capture
	switch {
	case post.IsVideo:
		out, err = videoCapture(ctx, "reddit", rawURL, workDir, deps)
	case post.PostHint == "image" || post.PostHint == "gallery":
		out, err = galleryCapture(ctx, "reddit", rawURL, workDir, deps)
	default:
		out, err = (&GenericHandler{}).Archive(ctx, rawURL, workDir, deps)
	}
	if err != nil {
		return nil, fmt.Errorf("archiving reddit post %q: %w", rawURL, err)
	}

	if post.Over18 || isNSFWSubreddit(post.Subreddit) {
		out.NSFW = true
		out.NSFWSource = "reddit over_18/subreddit"
	}
	return out, nil
}

var nsfwSubredditPattern = regexp.MustCompile(`(?i)nsfw|gonewild|porn`)

func isNSFWSubreddit(subreddit string) bool {
	return nsfwSubredditPattern.MatchString(subreddit)
}

func (h *RedditHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
