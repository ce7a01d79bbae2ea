// Package feedpoller implements the Feed Poller (§4.1): a single-threaded
// loop that fetches the forum's feed, upserts Post rows, and triggers link
// extraction for new or edited posts. Grounded on
// hrom512-rss_bot/internal/scheduler/scheduler.go's ticker-loop shape and
// internal/fetcher/fetcher.go's gofeed usage; adaptive-interval backoff on
// repeated empty polls generalizes
// davidroman0O-4chan-archiver/cmd/monitor.go's inactivity-aware interval.
package feedpoller

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

// PostSink persists posts and reacts to new/edited ones. Implemented by
// the pipeline's top-level orchestration (cmd/forumarchiver), which wires
// store.Store + linkextractor together; kept as an interface here so the
// poller stays independently testable. The returned bool reports whether
// p was new or edited — it drives both the adaptive-pacing reset and the
// pagination early-stop, so a sink must not report true for a post it
// already had on file unchanged.
type PostSink interface {
	IngestPost(ctx context.Context, p *model.Post) (changed bool, err error)
}

// Poller periodically fetches a Discourse-style feed and forwards new or
// edited posts to a PostSink.
type Poller struct {
	FeedURL      string
	MaxPages     int
	BaseInterval time.Duration
	MaxInterval  time.Duration

	sink   PostSink
	http   *http.Client
	log    *slog.Logger
	parser *gofeed.Parser

	currentInterval time.Duration
}

// New builds a Poller. baseInterval is the starting tick; it doubles
// geometrically (capped at maxInterval) on every poll that yields zero
// new/edited posts, and resets to baseInterval the moment one does, per
// §4.1's adaptive-pacing contract.
func New(feedURL string, maxPages int, baseInterval, maxInterval time.Duration, sink PostSink, log *slog.Logger) *Poller {
	return &Poller{
		FeedURL:         feedURL,
		MaxPages:        maxPages,
		BaseInterval:    baseInterval,
		MaxInterval:     maxInterval,
		sink:            sink,
		http:            &http.Client{Timeout: 30 * time.Second},
		log:             log,
		parser:          gofeed.NewParser(),
		currentInterval: baseInterval,
	}
}

// Run blocks, polling on an adaptive ticker until ctx is cancelled. Only
// one poll runs at a time — the loop is single-threaded per §4.1's
// ordering guarantee.
func (p *Poller) Run(ctx context.Context) {
	p.pollOnce(ctx)

	timer := time.NewTimer(p.currentInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.pollOnce(ctx)
			timer.Reset(p.currentInterval)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	changed, err := p.poll(ctx)
	if err != nil {
		p.log.Error("feed poll failed", "url", p.FeedURL, "error", err)
		return
	}

	if changed > 0 {
		p.currentInterval = p.BaseInterval
	} else {
		p.currentInterval *= 2
		if p.currentInterval > p.MaxInterval {
			p.currentInterval = p.MaxInterval
		}
	}
}

// poll fetches up to MaxPages pages of the feed, newest first, stopping
// early once a page yields no unseen posts, and returns how many posts
// were new or edited.
func (p *Poller) poll(ctx context.Context) (int, error) {
	changed := 0

	for page := 1; page <= maxInt(p.MaxPages, 1); page++ {
		feed, err := p.fetchPage(ctx, page)
		if err != nil {
			return changed, fmt.Errorf("fetching feed page %d: %w", page, err)
		}
		if feed == nil || len(feed.Items) == 0 {
			break
		}

		pageChanged := 0
		for _, item := range feed.Items {
			post, err := itemToPost(item)
			if err != nil {
				p.log.Warn("dropping malformed feed item", "link", item.Link, "error", err)
				continue
			}
			changed, err := p.sink.IngestPost(ctx, post)
			if err != nil {
				p.log.Error("ingesting post failed", "forum_id", post.ForumID, "error", err)
				continue
			}
			if changed {
				pageChanged++
			}
		}

		changed += pageChanged
		if pageChanged == 0 {
			break
		}
	}

	return changed, nil
}

func (p *Poller) fetchPage(ctx context.Context, page int) (*gofeed.Feed, error) {
	url := p.FeedURL
	if page > 1 {
		url = fmt.Sprintf("%s?page=%d", p.FeedURL, page)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %q", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed, nil
}

func itemToPost(item *gofeed.Item) (*model.Post, error) {
	if item.Link == "" {
		return nil, fmt.Errorf("feed item has no link")
	}

	forumID := item.GUID
	if forumID == "" {
		forumID = item.Link
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	return &model.Post{
		ForumID:     forumID,
		Author:      authorOf(item),
		Title:       item.Title,
		OriginalURL: item.Link,
		BodyHTML:    body,
		ContentHash: contentHash(body),
		PublishedAt: published,
	}, nil
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil {
		return item.Author.Name
	}
	if len(item.Authors) > 0 {
		return item.Authors[0].Name
	}
	return ""
}

func contentHash(body string) string {
	h := sha256.Sum256([]byte(body))
	return fmt.Sprintf("%x", h)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
