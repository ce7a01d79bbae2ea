package main

import (
	"context"
	"testing"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/handlers"
	"github.com/forumarchiver/forumarchiver/internal/httpx"
	"github.com/forumarchiver/forumarchiver/internal/linkextractor"
	"github.com/forumarchiver/forumarchiver/internal/model"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestLinkNormalizesThroughResolvedHandler(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	httpClient := httpx.New(5*time.Second, "")
	sink := &postSink{
		store:    s,
		http:     httpClient,
		registry: handlers.NewRegistry(),
		deps:     handlers.Deps{HTTP: httpClient},
		cfg:      archivePolicy{mode: "all"},
	}

	post := &model.Post{ForumID: "post-1", ContentHash: "h"}
	if _, _, err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("UpsertPost() failed: %v", err)
	}

	extracted := linkextractor.ExtractedLink{URL: "https://www.youtube.com/watch?v=abc123&list=PL1&t=42s"}
	if err := sink.ingestLink(ctx, post.ID, extracted); err != nil {
		t.Fatalf("ingestLink() failed: %v", err)
	}

	link, err := s.GetLinkByNormalizedURL(ctx, "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("expected the YouTube handler's Normalize override to strip list/t params, link lookup failed: %v", err)
	}
	if link.NormalizedURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("NormalizedURL = %q, want query trimmed to v= only", link.NormalizedURL)
	}
}

func TestMaybeQueueArchiveModeAll(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sink := &postSink{store: s, cfg: archivePolicy{mode: "all"}}

	link, _, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}

	if err := sink.maybeQueue(ctx, link, "example.com"); err != nil {
		t.Fatalf("maybeQueue() failed: %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() failed: %v", err)
	}
	if counts[model.ArchiveStatusPending] != 1 {
		t.Errorf("pending count = %d, want 1", counts[model.ArchiveStatusPending])
	}
}

func TestMaybeQueueArchiveModeDeletableSkipsNonEphemeralDomain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sink := &postSink{store: s, cfg: archivePolicy{mode: "deletable"}}

	link, _, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}

	if err := sink.maybeQueue(ctx, link, "example.com"); err != nil {
		t.Fatalf("maybeQueue() failed: %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() failed: %v", err)
	}
	if total := counts[model.ArchiveStatusPending]; total != 0 {
		t.Errorf("pending count = %d, want 0 for a non-ephemeral domain under deletable mode", total)
	}
}

func TestMaybeQueueArchiveModeDeletableQueuesEphemeralDomain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sink := &postSink{store: s, cfg: archivePolicy{mode: "deletable"}}

	link, _, err := s.UpsertLink(ctx, "https://imgur.com/a/abc", "https://imgur.com/a/abc", "", "imgur.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}

	if err := sink.maybeQueue(ctx, link, "imgur.com"); err != nil {
		t.Fatalf("maybeQueue() failed: %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() failed: %v", err)
	}
	if counts[model.ArchiveStatusPending] != 1 {
		t.Errorf("pending count = %d, want 1 for an ephemeral domain under deletable mode", counts[model.ArchiveStatusPending])
	}
}

func TestMaybeQueueQuoteOnlySkipsFullyQuotedArchivedLink(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sink := &postSink{store: s, cfg: archivePolicy{mode: "all", quoteOnlyLink: true}}

	link, _, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}
	post := &model.Post{ForumID: "post-1", ContentHash: "h"}
	if _, _, err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("UpsertPost() failed: %v", err)
	}
	if err := s.InsertOccurrence(ctx, &model.LinkOccurrence{PostID: post.ID, LinkID: link.ID, InQuote: true}); err != nil {
		t.Fatalf("InsertOccurrence() failed: %v", err)
	}

	archive, err := s.CreateArchive(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("CreateArchive() failed: %v", err)
	}
	if err := s.CompleteArchive(ctx, archive.ID, model.Archive{Status: model.ArchiveStatusComplete}); err != nil {
		t.Fatalf("CompleteArchive() failed: %v", err)
	}

	if err := sink.maybeQueue(ctx, link, "example.com"); err != nil {
		t.Fatalf("maybeQueue() failed: %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() failed: %v", err)
	}
	if counts[model.ArchiveStatusPending] != 0 {
		t.Errorf("pending count = %d, want 0: a fully in-quote, already-archived link should not be requeued", counts[model.ArchiveStatusPending])
	}
}
