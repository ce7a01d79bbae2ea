package linkextractor

import "testing"

func TestExtractBasicLink(t *testing.T) {
	html := `<p>Check out <a href="https://example.com/x">this</a> link.</p>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].URL != "https://example.com/x" {
		t.Errorf("URL = %q", links[0].URL)
	}
	if links[0].InQuote {
		t.Errorf("expected InQuote=false")
	}
}

func TestExtractRelativeLinkResolvedAgainstPostURL(t *testing.T) {
	html := `<a href="/relative/path">rel</a>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 || links[0].URL != "https://forum.example/relative/path" {
		t.Fatalf("got %+v", links)
	}
}

func TestExtractSkipsNonHTTPAndPlaceholders(t *testing.T) {
	html := `
		<a href="#">anchor</a>
		<a href="javascript:void(0)">js</a>
		<a href="mailto:a@b.com">mail</a>
		<a href="https://example.com/real">real</a>
	`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 || links[0].URL != "https://example.com/real" {
		t.Fatalf("got %+v", links)
	}
}

func TestExtractDedupesByURL(t *testing.T) {
	html := `<a href="https://example.com/x">a</a><a href="https://example.com/x">b</a>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected dedup to 1 link, got %d", len(links))
	}
}

func TestExtractBlockquoteIsQuote(t *testing.T) {
	html := `<blockquote><a href="https://example.com/q">quoted</a></blockquote>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 || !links[0].InQuote {
		t.Fatalf("expected in-quote link, got %+v", links)
	}
}

func TestExtractAsideQuoteClass(t *testing.T) {
	html := `<aside class="quote">[Reply to @bob]<a href="https://example.com/q">link</a></aside>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 || !links[0].InQuote {
		t.Fatalf("expected in-quote link via aside.quote, got %+v", links)
	}
}

func TestExtractDivQuoteClass(t *testing.T) {
	html := `<div class="quote-block">text <a href="https://example.com/q">link</a></div>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 || !links[0].InQuote {
		t.Fatalf("expected in-quote link via div.quote-block, got %+v", links)
	}
}

func TestExtractContextNearestBlock(t *testing.T) {
	html := `<div><p>Some surrounding sentence with <a href="https://example.com/x">a link</a> inside it.</p></div>`
	links, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Context == "" {
		t.Errorf("expected non-empty context snippet")
	}
}

func TestExtractDeterministic(t *testing.T) {
	html := `<p>one <a href="https://example.com/1">1</a></p><p>two <a href="https://example.com/2">2</a></p>`
	first, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	second, err := Extract(html, "https://forum.example/t/1")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic link count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("non-deterministic output at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
