package handlers

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// GenericHandler is the always-present fallback (§4.5): it fetches raw
// HTML, runs it through go-readability for the distilled article and
// goquery for OpenGraph metadata, the same two-pass shape as the
// teacher's pkg/parser.Parser.ParseToStructured, generalized from
// building a structured Page into building a Capture.
type GenericHandler struct{}

func (h *GenericHandler) ID() string { return "generic" }

// Matches everything; the registry only reaches this handler once every
// more specific one has declined.
func (h *GenericHandler) Matches(rawURL string) bool { return true }

func (h *GenericHandler) Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error) {
	rawHTML, err := deps.HTTP.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", rawURL, err)
	}

	rawPath := filepath.Join(workDir, "raw.html")
	if err := os.WriteFile(rawPath, rawHTML, 0o644); err != nil {
		return nil, fmt.Errorf("writing raw.html for %q: %w", rawURL, err)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(rawHTML)), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting readable content from %q: %w", rawURL, err)
	}

	title, author, description := article.Title, article.Byline, article.Excerpt
	var publishedAt string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML))); err == nil {
		if title == "" {
			title = ogContent(doc, "og:title")
		}
		if description == "" {
			description = ogContent(doc, "og:description")
		}
		if author == "" {
			author = doc.Find(`meta[name="author"]`).AttrOr("content", "")
		}
		published := ogContent(doc, "article:published_time")
		if published == "" {
			published = ogContent(doc, "og:updated_time")
		}
		if parsed, ok := parsePublished(published); ok {
			publishedAt = parsed
		}
	}

	status, err := deps.HTTP.StatusOf(ctx, rawURL)
	if err != nil {
		status = 0
	}

	return &model.Capture{
		PrimaryPath:  rawPath,
		Title:        title,
		Author:       author,
		Description:  description,
		PublishedAt:  publishedAt,
		ContentClass: model.ContentText,
		FinalStatus:  status,
	}, nil
}

func ogContent(doc *goquery.Document, property string) string {
	return doc.Find(fmt.Sprintf(`meta[property="%s"]`, property)).AttrOr("content", "")
}

// parsePublished is shared by handlers that need to parse loosely
// formatted publish-date strings out of page metadata.
func parsePublished(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func (h *GenericHandler) Normalize(ctx context.Context, rawURL string, deps Deps) (string, error) {
	return normalizeURL(ctx, rawURL, deps)
}
