// Package linkextractor walks a forum post's rendered HTML body and
// deterministically produces the set of outbound links plus quote-context
// metadata for each occurrence. The algorithm (ancestor walk for quote
// shapes, nearest-block-parent context snippet, truncate-around window) is
// grounded on original_source/src/rss/link_extractor.rs; the DOM traversal
// itself is done with goquery, the library the teacher already uses for
// HTML parsing in pkg/fetcher/fetcher.go.
package linkextractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractedLink is one link found inside a post body, with its
// quote-context classification and a surrounding-text snippet.
type ExtractedLink struct {
	URL     string
	InQuote bool
	Context string
}

const (
	snippetMaxChars    = 500
	truncateWindowChars = 250
)

// Extract parses postHTML as a fragment, absolutizes every a[href] against
// postURL, and returns one ExtractedLink per href, deduplicated by
// absolute URL (first sighting wins, matching the dedup-by-href behavior
// of the original extractor). Non-http(s) and empty/placeholder hrefs
// (`#`, `javascript:`, `mailto:`) are skipped.
func Extract(postHTML, postURL string) ([]ExtractedLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(postHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing post body as HTML: %w", err)
	}

	base, err := url.Parse(postURL)
	if err != nil {
		return nil, fmt.Errorf("parsing post url %q: %w", postURL, err)
	}

	seen := make(map[string]bool)
	var out []ExtractedLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		absStr := abs.String()
		if seen[absStr] {
			return
		}
		seen[absStr] = true

		out = append(out, ExtractedLink{
			URL:     absStr,
			InQuote: isInQuote(sel),
			Context: extractContext(sel),
		})
	})

	return out, nil
}

// isInQuote walks the ancestor chain looking for the quote shapes named in
// the link-extraction algorithm: a bare <blockquote>, or an <aside>/<div>
// whose class list contains "quote".
func isInQuote(sel *goquery.Selection) bool {
	found := false
	sel.ParentsFiltered("*").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		tag := goquery.NodeName(p)
		if tag == "blockquote" {
			found = true
			return false
		}
		if tag == "aside" || tag == "div" {
			class, _ := p.Attr("class")
			if strings.Contains(class, "quote") {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// extractContext returns the text of the nearest p/li/div ancestor when it
// is at most snippetMaxChars long, a window truncated around the link text
// when it is longer, and the link text alone when there is no such ancestor.
func extractContext(sel *goquery.Selection) string {
	linkText := strings.TrimSpace(sel.Text())

	var blockText string
	sel.ParentsFiltered("*").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		switch goquery.NodeName(p) {
		case "p", "li", "div":
			blockText = strings.TrimSpace(p.Text())
			return false
		}
		return true
	})

	if blockText == "" {
		return linkText
	}
	if len(blockText) <= snippetMaxChars {
		return blockText
	}
	return truncateAround(blockText, linkText)
}

// truncateAround returns a window of truncateWindowChars characters on
// either side of needle's first occurrence in haystack, with "..." markers
// where text was cut, matching the original extractor's behavior for long
// surrounding blocks.
func truncateAround(haystack, needle string) string {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		if len(haystack) <= snippetMaxChars {
			return haystack
		}
		return haystack[:snippetMaxChars] + "..."
	}

	start := idx - truncateWindowChars
	prefix := ""
	if start < 0 {
		start = 0
	} else {
		prefix = "..."
	}

	end := idx + len(needle) + truncateWindowChars
	suffix := ""
	if end >= len(haystack) {
		end = len(haystack)
	} else {
		suffix = "..."
	}

	return prefix + haystack[start:end] + suffix
}
