package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// Browser owns one Playwright/Chromium process and hands out pages for
// each capture, mirroring other_examples/hackclub-arker__main.go's
// MHTMLArchiver/ScreenshotArchiver (navigate, wait for readyState
// complete, CDP session for MHTML, full-page screenshot), generalized to
// also produce a PDF and a self-contained HTML capture per spec §6.3.3.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewBrowser launches a headless Chromium instance. The caller must call
// Close on process shutdown (§5: "it must be torn down on task exit").
func NewBrowser() (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}
	return &Browser{pw: pw, browser: browser}, nil
}

// Close tears down the browser and the playwright driver process.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	if err := b.pw.Stop(); err != nil {
		return fmt.Errorf("stopping playwright: %w", err)
	}
	return nil
}

// BrowserCaptures is the set of independently-enableable browser outputs
// from spec §6.3.3: any may be disabled and absent from the result.
type BrowserCaptures struct {
	ScreenshotPath   string
	PDFPath          string
	MHTMLPath        string
	CompleteHTMLPath string
}

// BrowserOptions selects which captures to run and at what viewport.
type BrowserOptions struct {
	Screenshot bool
	PDF        bool
	MHTML      bool
	Viewport   playwright.Size
	TimeoutMS  float64
}

// Capture navigates to url once and produces whichever outputs opts
// enables, writing each into workDir.
func (b *Browser) Capture(url, workDir string, opts BrowserOptions) (*BrowserCaptures, error) {
	page, err := b.browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &opts.Viewport,
	})
	if err != nil {
		return nil, fmt.Errorf("opening browser page for %q: %w", url, err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{Timeout: playwright.Float(opts.TimeoutMS)}); err != nil {
		return nil, fmt.Errorf("navigating to %q: %w", url, err)
	}
	if _, err := page.WaitForFunction("document.readyState === 'complete'", playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(opts.TimeoutMS),
	}); err != nil {
		return nil, fmt.Errorf("waiting for %q to finish loading: %w", url, err)
	}

	out := &BrowserCaptures{}

	if opts.Screenshot {
		data, err := page.Screenshot(playwright.PageScreenshotOptions{
			FullPage: playwright.Bool(true),
			Type:     playwright.ScreenshotTypePng,
		})
		if err != nil {
			return out, fmt.Errorf("screenshotting %q: %w", url, err)
		}
		path := filepath.Join(workDir, "screenshot.png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return out, fmt.Errorf("writing screenshot for %q: %w", url, err)
		}
		out.ScreenshotPath = path
	}

	if opts.PDF {
		path := filepath.Join(workDir, "page.pdf")
		if _, err := page.PDF(playwright.PagePdfOptions{Path: playwright.String(path)}); err != nil {
			return out, fmt.Errorf("generating PDF for %q: %w", url, err)
		}
		out.PDFPath = path
	}

	if opts.MHTML {
		session, err := page.Context().NewCDPSession(page)
		if err != nil {
			return out, fmt.Errorf("opening CDP session for %q: %w", url, err)
		}
		result, err := session.Send("Page.captureSnapshot", map[string]any{"format": "mhtml"})
		if err != nil {
			return out, fmt.Errorf("capturing MHTML for %q: %w", url, err)
		}
		resultMap, ok := result.(map[string]any)
		if !ok {
			return out, fmt.Errorf("unexpected CDP response capturing MHTML for %q", url)
		}
		data, _ := resultMap["data"].(string)
		path := filepath.Join(workDir, "complete.mhtml")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return out, fmt.Errorf("writing MHTML for %q: %w", url, err)
		}
		out.MHTMLPath = path
	}

	html, err := page.Content()
	if err != nil {
		return out, fmt.Errorf("reading rendered DOM for %q: %w", url, err)
	}
	path := filepath.Join(workDir, "complete.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return out, fmt.Errorf("writing complete HTML for %q: %w", url, err)
	}
	out.CompleteHTMLPath = path

	return out, nil
}
