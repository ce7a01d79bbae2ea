// Package handlers implements the Site Handler Registry (§4.5): a closed
// set of per-platform capture strategies plus an always-present generic
// fallback, dispatched by ordered pattern match rather than runtime
// reflection (§9's "closed set of variants" redesign).
package handlers

import (
	"context"
	"log/slog"

	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/httpx"
	"github.com/forumarchiver/forumarchiver/internal/model"
)

// Handler is a site-specific capture strategy. Implementations hold no
// back-pointer to the worker pool (§9): every dependency a handler needs
// arrives through Deps.
type Handler interface {
	// ID is a stable identifier used in logs and job-step records.
	ID() string
	// Matches reports whether this handler should own url.
	Matches(rawURL string) bool
	// Archive performs the capture and returns the in-memory result. The
	// handler may write scratch files anywhere under workDir; it must not
	// write outside it.
	Archive(ctx context.Context, rawURL, workDir string, deps Deps) (*model.Capture, error)
	// Normalize canonicalizes rawURL for use as the Link identity (§4.3).
	// Every handler runs the shared rules in internal/urlnormalize; a
	// handler overrides this only when its site needs canonicalization
	// beyond those shared rules.
	Normalize(ctx context.Context, rawURL string, deps Deps) (string, error)
}

// Deps is the immutable bundle of dependencies a handler may need, passed
// by reference so handlers stay cheap to construct and safe for
// concurrent use across distinct URLs (§9's "one immutable shared state
// bundle" redesign).
type Deps struct {
	HTTP        *httpx.Client
	Config      *config.Config
	Log         *slog.Logger
	CookiesFile string
}
