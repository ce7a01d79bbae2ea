package feedpoller

import (
	"testing"

	"github.com/mmcdole/gofeed"
)

func TestContentHashStable(t *testing.T) {
	a := contentHash("hello world")
	b := contentHash("hello world")
	if a != b {
		t.Errorf("expected stable hash, got %q and %q", a, b)
	}
	c := contentHash("hello world!")
	if a == c {
		t.Errorf("expected different hashes for different content")
	}
}

func TestItemToPostRequiresLink(t *testing.T) {
	_, err := itemToPost(&gofeed.Item{Title: "no link"})
	if err == nil {
		t.Fatalf("expected error for item with no link")
	}
}

func TestItemToPostUsesGUIDAsForumID(t *testing.T) {
	item := &gofeed.Item{GUID: "forum-post-42", Link: "https://forum.example/t/42"}
	post, err := itemToPost(item)
	if err != nil {
		t.Fatalf("itemToPost() failed: %v", err)
	}
	if post.ForumID != "forum-post-42" {
		t.Errorf("ForumID = %q, want %q", post.ForumID, "forum-post-42")
	}
}

func TestItemToPostFallsBackToLinkWhenNoGUID(t *testing.T) {
	item := &gofeed.Item{Link: "https://forum.example/t/42"}
	post, err := itemToPost(item)
	if err != nil {
		t.Fatalf("itemToPost() failed: %v", err)
	}
	if post.ForumID != "https://forum.example/t/42" {
		t.Errorf("ForumID = %q, want item link", post.ForumID)
	}
}
