package handlers

import (
	"regexp"
	"testing"
)

func TestHostOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reddit.com/r/golang", "www.reddit.com"},
		{"https://i.imgur.com/abc.jpg", "i.imgur.com"},
		{"not a url at all", ""},
	}
	for _, tt := range tests {
		if got := hostOf(tt.url); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseURLPath(t *testing.T) {
	got, err := parseURLPath("https://bsky.app/profile/alice.bsky.social/post/xyz")
	if err != nil {
		t.Fatalf("parseURLPath() error = %v", err)
	}
	want := "/profile/alice.bsky.social/post/xyz"
	if got != want {
		t.Errorf("parseURLPath() = %q, want %q", got, want)
	}
}

func TestFirstMatch(t *testing.T) {
	re := regexp.MustCompile(`id=(\d+)`)
	if got := firstMatch(re, "video?id=42"); got != "42" {
		t.Errorf("firstMatch() = %q, want %q", got, "42")
	}
	if got := firstMatch(re, "no id here"); got != "" {
		t.Errorf("firstMatch() = %q, want empty", got)
	}
}

func TestDisplayNameOr(t *testing.T) {
	if got := displayNameOr("Alice", "alice.bsky.social"); got != "Alice" {
		t.Errorf("displayNameOr() = %q, want %q", got, "Alice")
	}
	if got := displayNameOr("", "alice.bsky.social"); got != "alice.bsky.social" {
		t.Errorf("displayNameOr() = %q, want %q", got, "alice.bsky.social")
	}
}

func TestParseBlueskyPostURL(t *testing.T) {
	handle, rkey, err := parseBlueskyPostURL("https://bsky.app/profile/alice.bsky.social/post/3kabc")
	if err != nil {
		t.Fatalf("parseBlueskyPostURL() error = %v", err)
	}
	if handle != "alice.bsky.social" || rkey != "3kabc" {
		t.Errorf("parseBlueskyPostURL() = (%q, %q), want (%q, %q)", handle, rkey, "alice.bsky.social", "3kabc")
	}

	if _, _, err := parseBlueskyPostURL("https://bsky.app/profile/alice.bsky.social"); err == nil {
		t.Error("parseBlueskyPostURL() on a non-post URL: want error, got nil")
	}
}

func TestIsNSFWSubreddit(t *testing.T) {
	tests := []struct {
		subreddit string
		want      bool
	}{
		{"gonewild", true},
		{"NSFW_GW", true},
		{"golang", false},
		{"programming", false},
	}
	for _, tt := range tests {
		if got := isNSFWSubreddit(tt.subreddit); got != tt.want {
			t.Errorf("isNSFWSubreddit(%q) = %v, want %v", tt.subreddit, got, tt.want)
		}
	}
}

func TestParsePublished(t *testing.T) {
	date, ok := parsePublished("2026-01-15T10:00:00Z")
	if !ok {
		t.Fatal("parsePublished() ok = false, want true")
	}
	if date != "2026-01-15" {
		t.Errorf("parsePublished() = %q, want %q", date, "2026-01-15")
	}

	if _, ok := parsePublished(""); ok {
		t.Error("parsePublished(\"\") ok = true, want false")
	}
}
