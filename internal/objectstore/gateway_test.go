package objectstore

import "testing"

func TestGatewayFullKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"no prefix", "", "archives/1/page.html", "archives/1/page.html"},
		{"with prefix", "forum-prod", "archives/1/page.html", "forum-prod/archives/1/page.html"},
	}
	for _, tt := range tests {
		g := &Gateway{prefix: tt.prefix}
		if got := g.fullKey(tt.key); got != tt.want {
			t.Errorf("fullKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}
}
