// Package urlnormalize implements the pure URL → canonical-form function
// used everywhere in the pipeline as the Link identity. It generalizes the
// teacher's artifact_manager.normalizeURL (force-https, lowercase host,
// sort query params, strip fragment) with the tracking-parameter and
// trailing-slash rules of the system this pipeline was distilled from.
package urlnormalize

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are stripped unconditionally. Keys are lowercase.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"ref_url": true,
	"igshid":  true,
	"si":      true,
}

func isTracking(key string) bool {
	lower := strings.ToLower(key)
	return trackingParams[lower] || strings.HasPrefix(lower, "utm_")
}

// shortHosts map a shortlink host to the resolver they require before the
// long-form canonical host is known.
var shortHosts = map[string]bool{
	"redd.it":       true,
	"vm.tiktok.com": true,
}

// siteHostCanon rewrites a lowercased host to its site-canonical form.
var siteHostCanon = map[string]string{
	"reddit.com":     "old.reddit.com",
	"www.reddit.com": "old.reddit.com",
}

// Resolver follows a short URL's redirect chain and returns the final URL.
// It is supplied by the caller (internal/httpx) so this package stays a
// pure function when no resolver is given.
type Resolver interface {
	ResolveRedirect(ctx context.Context, rawURL string) (string, error)
}

// Normalize applies the normalization rules in order and returns the
// canonical form. resolver may be nil, in which case short-host
// canonicalization (step 6's redirect-following half) is skipped and the
// short host is only rewritten where a static mapping exists.
func Normalize(ctx context.Context, rawURL string, resolver Resolver) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, rawURL)
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Host = stripDefaultPort(u.Host)

	if shortHosts[u.Host] && resolver != nil {
		resolved, err := resolver.ResolveRedirect(ctx, u.String())
		if err == nil && resolved != "" {
			ru, err := url.Parse(resolved)
			if err == nil && (ru.Scheme == "http" || ru.Scheme == "https") {
				ru.Scheme = "https"
				ru.Host = strings.ToLower(stripDefaultPort(ru.Host))
				u = ru
			}
		}
	}

	if canon, ok := siteHostCanon[u.Host]; ok {
		u.Host = canon
	}

	if u.RawQuery != "" {
		parsed := u.Query()
		for k := range parsed {
			if isTracking(k) {
				parsed.Del(k)
			}
		}
		u.RawQuery = sortedEncode(parsed)
	}

	u.Fragment = ""

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String(), nil
}

func stripDefaultPort(host string) string {
	if strings.HasSuffix(host, ":443") || strings.HasSuffix(host, ":80") {
		if i := strings.LastIndex(host, ":"); i >= 0 {
			return host[:i]
		}
	}
	return host
}

func sortedEncode(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := url.Values{}
	for _, k := range keys {
		for _, val := range v[k] {
			out.Add(k, val)
		}
	}
	return out.Encode()
}

// Domain extracts the full host from a normalized URL, for use as the
// per-domain semaphore key. Default ports are already stripped by
// Normalize; a non-default port stays part of the returned host.
func Domain(normalizedURL string) (string, error) {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return "", fmt.Errorf("parsing normalized url %q: %w", normalizedURL, err)
	}
	return u.Host, nil
}
