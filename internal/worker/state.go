// Package worker implements the Archive Worker Pool (§4.4): the state
// machine that drives Archives from pending through to complete, skipped,
// failed, or auth_required, with bounded global and per-domain concurrency.
// Concurrency shape (global semaphore, sync.WaitGroup, per-key semaphore
// map) is grounded on
// davidroman0O-4chan-archiver/internal/archiver/archiver.go's
// ArchiveThreads; the state machine itself and its startup recovery are
// grounded on original_source/src/archiver/worker.rs.
package worker

import (
	"log/slog"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/handlers"
	"github.com/forumarchiver/forumarchiver/internal/httpx"
	"github.com/forumarchiver/forumarchiver/internal/objectstore"
	"github.com/forumarchiver/forumarchiver/internal/store"
	"github.com/forumarchiver/forumarchiver/internal/submitters"
)

// State is the immutable bundle of dependencies every processed archive
// needs, mirroring handlers.Deps's "one shared bundle, no back-pointers"
// shape (§9) one level up the call stack.
type State struct {
	Store      *store.Store
	Objects    *objectstore.Gateway
	Registry   *handlers.Registry
	Config     *config.Config
	Submitters *submitters.Set
	Browser    *capture.Browser
	HTTP       *httpx.Client
	Log        *slog.Logger
}
