package urlnormalize

import (
	"context"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"force https", "http://example.com/path", "https://example.com/path"},
		{"lowercase host", "https://EXAMPLE.COM/path", "https://example.com/path"},
		{"remove one tracking param", "https://example.com/path?utm_source=test&id=123", "https://example.com/path?id=123"},
		{"remove all tracking params", "https://example.com/path?utm_source=test&utm_medium=web", "https://example.com/path"},
		{"remove fragment", "https://example.com/path#section", "https://example.com/path"},
		{"remove trailing slash", "https://example.com/path/", "https://example.com/path"},
		{"keep root slash", "https://example.com/", "https://example.com/"},
		{"remove default https port", "https://example.com:443/path", "https://example.com/path"},
		{"remove default http port", "http://example.com:80/path", "https://example.com/path"},
		{"preserve non-tracking params", "https://example.com/path?page=2&sort=new", "https://example.com/path?page=2&sort=new"},
		{"sort query params", "https://example.com/path?b=2&a=1", "https://example.com/path?a=1&b=2"},
		{"reddit canonicalization", "https://www.Reddit.com/r/Aww/comments/abc/?utm_source=x&utm_campaign=y", "https://old.reddit.com/r/Aww/comments/abc"},
		{"bare reddit host", "https://reddit.com/r/aww", "https://old.reddit.com/r/aww"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(context.Background(), tc.in, nil)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsNonHTTP(t *testing.T) {
	_, err := Normalize(context.Background(), "mailto:test@example.com", nil)
	if err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"http://Example.com:443/a/b/?utm_source=x&z=1&a=2#frag",
		"https://www.reddit.com/r/foo/",
	}
	for _, in := range inputs {
		first, err := Normalize(context.Background(), in, nil)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", in, err)
		}
		second, err := Normalize(context.Background(), first, nil)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", first, err)
		}
		if first != second {
			t.Errorf("normalization not idempotent: %q -> %q -> %q", in, first, second)
		}
	}
}

func TestNormalizeTrackingParamClosure(t *testing.T) {
	base := "https://example.com/path?id=1"
	trackingKeys := []string{"utm_source", "utm_campaign", "fbclid", "gclid", "mc_cid", "mc_eid", "ref", "ref_src", "ref_url", "igshid", "si"}
	want, err := Normalize(context.Background(), base, nil)
	if err != nil {
		t.Fatalf("Normalize(%q) error: %v", base, err)
	}
	for _, k := range trackingKeys {
		withTracking := base + "&" + k + "=v"
		got, err := Normalize(context.Background(), withTracking, nil)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", withTracking, err)
		}
		if got != want {
			t.Errorf("tracking key %q changed normalized form: got %q want %q", k, got, want)
		}
	}
}
