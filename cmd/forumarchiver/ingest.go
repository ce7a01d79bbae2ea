package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forumarchiver/forumarchiver/internal/handlers"
	"github.com/forumarchiver/forumarchiver/internal/httpx"
	"github.com/forumarchiver/forumarchiver/internal/linkextractor"
	"github.com/forumarchiver/forumarchiver/internal/model"
	"github.com/forumarchiver/forumarchiver/internal/store"
	"github.com/forumarchiver/forumarchiver/internal/urlnormalize"
)

// ephemeralDomains are hosts whose content is expected to disappear or
// rot quickly (image hosts, pastebins, locked/deleted-prone threads).
// ARCHIVE_MODE=deletable archives only links on these domains; ARCHIVE_MODE=all
// archives every link regardless of domain. Resolves the open question of
// what "deletable" excludes, left configuration-only by the source this
// pipeline was distilled from.
var ephemeralDomains = map[string]bool{
	"imgur.com":            true,
	"i.imgur.com":          true,
	"gyazo.com":            true,
	"catbox.moe":           true,
	"pastebin.com":         true,
	"gfycat.com":           true,
	"streamable.com":       true,
	"old.reddit.com":       true,
	"cdn.discordapp.com":   true,
	"media.discordapp.net": true,
}

// postSink implements feedpoller.PostSink, wiring the Feed Poller's new/edited
// posts into link extraction, normalization, and archive-eligibility
// decisions (§4.2 steps 1-5).
type postSink struct {
	store    *store.Store
	http     *httpx.Client
	registry *handlers.Registry
	deps     handlers.Deps
	cfg      archivePolicy
	log      *slog.Logger
}

// archivePolicy is the subset of configuration the ingestion policy reads,
// kept narrow so postSink doesn't need the whole *config.Config.
type archivePolicy struct {
	mode          string // "deletable" or "all"
	quoteOnlyLink bool
}

func (s *postSink) IngestPost(ctx context.Context, p *model.Post) (bool, error) {
	isNew, changed, err := s.store.UpsertPost(ctx, p)
	if err != nil {
		return false, fmt.Errorf("upserting post %q: %w", p.ForumID, err)
	}
	if !isNew && !changed {
		return false, nil
	}

	links, err := linkextractor.Extract(p.BodyHTML, p.OriginalURL)
	if err != nil {
		return true, fmt.Errorf("extracting links from post %q: %w", p.ForumID, err)
	}

	for _, l := range links {
		if err := s.ingestLink(ctx, p.ID, l); err != nil {
			s.log.Warn("ingesting extracted link failed", "post_id", p.ID, "url", l.URL, "error", err)
		}
	}
	return true, nil
}

func (s *postSink) ingestLink(ctx context.Context, postID int64, extracted linkextractor.ExtractedLink) error {
	// Normalization runs through the handler that will eventually archive
	// this URL, per §4.3/§4.5: every handler must agree with the shared
	// rules, and a handler needing extra canonicalization (e.g. YouTube's
	// query-param trim) gets the chance to apply it before the Link row
	// is keyed off the result.
	handler := s.registry.Resolve(extracted.URL)
	normalized, err := handler.Normalize(ctx, extracted.URL, s.deps)
	if err != nil {
		return fmt.Errorf("normalizing %q: %w", extracted.URL, err)
	}
	domain, err := urlnormalize.Domain(normalized)
	if err != nil {
		return fmt.Errorf("extracting domain from %q: %w", normalized, err)
	}

	// Only resolve the post-redirect final URL for links never seen before —
	// UpsertLink is a no-op for an existing row, so there's no point paying
	// for a HEAD request on every re-occurrence of an already-known link.
	link, err := s.store.GetLinkByNormalizedURL(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		finalURL, rerr := s.http.ResolveRedirect(ctx, normalized)
		if rerr != nil || finalURL == "" {
			finalURL = normalized
		}
		link, _, err = s.store.UpsertLink(ctx, normalized, extracted.URL, finalURL, domain)
	}
	if err != nil {
		return fmt.Errorf("upserting link %q: %w", normalized, err)
	}

	if err := s.store.InsertOccurrence(ctx, &model.LinkOccurrence{
		PostID:  postID,
		LinkID:  link.ID,
		InQuote: extracted.InQuote,
		Snippet: extracted.Context,
	}); err != nil {
		return fmt.Errorf("inserting occurrence for link %d: %w", link.ID, err)
	}

	return s.maybeQueue(ctx, link, domain)
}

// maybeQueue applies §4.2 step 5's quote-only skip policy — gated by
// ARCHIVE_QUOTE_ONLY_LINKS, which lets an operator disable the skip and
// always queue regardless of quote context — and the ARCHIVE_MODE domain
// policy, before creating a pending Archive.
func (s *postSink) maybeQueue(ctx context.Context, link *model.Link, domain string) error {
	if s.cfg.quoteOnlyLink {
		allInQuote, hasCompletedArchive, err := s.store.AllOccurrencesInQuote(ctx, link.ID)
		if err != nil {
			return fmt.Errorf("checking quote-only policy for link %d: %w", link.ID, err)
		}
		if allInQuote && hasCompletedArchive {
			return nil
		}
	}

	if s.cfg.mode == "deletable" && !ephemeralDomains[domain] {
		return nil
	}

	if _, err := s.store.CreateArchive(ctx, link.ID, 0); err != nil {
		return fmt.Errorf("queuing archive for link %d: %w", link.ID, err)
	}
	return nil
}
