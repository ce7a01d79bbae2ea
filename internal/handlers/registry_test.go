package handlers

import "testing"

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=abc123", "youtube"},
		{"youtu.be short link", "https://youtu.be/abc123", "youtube"},
		{"tiktok", "https://www.tiktok.com/@user/video/123", "tiktok"},
		{"twitter", "https://twitter.com/user/status/123", "twitter"},
		{"x.com", "https://x.com/user/status/123", "twitter"},
		{"reddit", "https://www.reddit.com/r/golang/comments/abc/title/", "reddit"},
		{"redd.it", "https://redd.it/abc", "reddit"},
		{"streamable", "https://streamable.com/abc123", "streamable"},
		{"instagram", "https://www.instagram.com/p/abc123/", "instagram"},
		{"imgur", "https://imgur.com/a/abc123", "imgur"},
		{"i.imgur.com", "https://i.imgur.com/abc123.jpg", "imgur"},
		{"bluesky", "https://bsky.app/profile/user.bsky.social/post/abc123", "bluesky"},
		{"unrecognized host falls back to generic", "https://example.com/article", "generic"},
		{"imgur lookalike host does not match", "https://notimgur.com/a/abc123", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.url).ID()
			if got != tt.want {
				t.Errorf("Resolve(%q).ID() = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestRegistryResolveNeverNil(t *testing.T) {
	r := NewRegistry()
	if h := r.Resolve("not a url at all"); h == nil {
		t.Fatal("Resolve() returned nil, want the generic fallback")
	}
}
