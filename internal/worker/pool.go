package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/handlers"
	"github.com/forumarchiver/forumarchiver/internal/model"
	"github.com/forumarchiver/forumarchiver/internal/objectstore"
	"github.com/forumarchiver/forumarchiver/internal/store"
)

// Pool drives Archives through the state machine described in §4.4, with
// a global admission semaphore and a per-domain semaphore lazily created
// per Link domain — the same shape as
// davidroman0O-4chan-archiver/internal/archiver/archiver.go's
// ArchiveThreads, generalized from one fixed-size job list to a
// continuously polled queue.
type Pool struct {
	state *State

	globalSem chan struct{}

	domainMu   sync.Mutex
	domainSems map[string]chan struct{}

	wg sync.WaitGroup
}

// NewPool builds a Pool bound to state, sized by state.Config's
// concurrency settings.
func NewPool(state *State) *Pool {
	return &Pool{
		state:      state,
		globalSem:  make(chan struct{}, state.Config.WorkerConcurrency),
		domainSems: make(map[string]chan struct{}),
	}
}

func (p *Pool) domainSemaphore(domain string) chan struct{} {
	p.domainMu.Lock()
	defer p.domainMu.Unlock()
	sem, ok := p.domainSems[domain]
	if !ok {
		sem = make(chan struct{}, p.state.Config.PerDomainConcurrency)
		p.domainSems[domain] = sem
	}
	return sem
}

// Run recovers stale processing rows left by a prior crash, then polls for
// pending work until ctx is cancelled, dispatching each claimed archive to
// its own goroutine bounded by the global and per-domain semaphores. This
// mirrors original_source/src/archiver/worker.rs's run() loop shape:
// claim pending work or a failure whose retry time has matured, sleep,
// repeat.
func (p *Pool) Run(ctx context.Context) error {
	recovered, err := p.state.Store.RecoverOnStartup(ctx)
	if err != nil {
		return fmt.Errorf("recovering stale archives on startup: %w", err)
	}
	if recovered > 0 {
		p.state.Log.Info("recovered stale processing archives", "count", recovered)
	}

	const idlePoll = 2 * time.Second
	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return nil
		default:
		}

		archive, err := p.state.Store.ClaimNextPending(ctx)
		if errors.Is(err, store.ErrNotFound) {
			select {
			case <-ctx.Done():
				p.wg.Wait()
				return nil
			case <-time.After(idlePoll):
			}
			continue
		}
		if err != nil {
			p.state.Log.Error("claiming next pending archive failed", "error", err)
			continue
		}

		p.dispatch(ctx, archive)
	}
}

func (p *Pool) dispatch(ctx context.Context, archive *model.Archive) {
	link, err := p.state.Store.GetLink(ctx, archive.LinkID)
	if err != nil {
		p.state.Log.Error("loading link for archive failed", "archive_id", archive.ID, "error", err)
		return
	}

	domainSem := p.domainSemaphore(link.Domain)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.globalSem <- struct{}{}
		defer func() { <-p.globalSem }()

		domainSem <- struct{}{}
		defer func() { <-domainSem }()

		p.process(ctx, archive, link)
	}()
}

// process is the per-archive pipeline of §4.4's "Processing step": isolate
// a temp dir, resolve the handler, capture, persist artifacts, update the
// archive row, submit to third-party archivers, and unconditionally clean
// up the temp dir.
func (p *Pool) process(ctx context.Context, archive *model.Archive, link *model.Link) {
	ctx, cancel := context.WithTimeout(ctx, p.state.Config.ArchiveProcessingTimeout)
	defer cancel()

	workDir, err := os.MkdirTemp(p.state.Config.WorkDir, fmt.Sprintf("archive-%d-", archive.ID))
	if err != nil {
		p.state.Log.Error("creating work dir failed", "archive_id", archive.ID, "error", err)
		p.fail(ctx, archive, fmt.Errorf("creating work directory: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	withinLimit, err := p.state.Store.TouchDomainRateLimit(ctx, link.Domain, time.Minute, p.state.Config.DomainRatePerMin)
	if err != nil {
		p.state.Log.Warn("domain rate limit check failed", "archive_id", archive.ID, "domain", link.Domain, "error", err)
	} else if !withinLimit {
		p.fail(ctx, archive, fmt.Errorf("domain %q exceeded %d requests/min", link.Domain, p.state.Config.DomainRatePerMin))
		return
	}

	handler := p.state.Registry.Resolve(link.RawURL)
	stepID, err := p.state.Store.StartJobStep(ctx, archive.ID, handler.ID())
	if err != nil {
		p.state.Log.Error("starting job step failed", "archive_id", archive.ID, "error", err)
	}

	deps := handlers.Deps{
		HTTP:        p.state.HTTP,
		Config:      p.state.Config,
		Log:         p.state.Log,
		CookiesFile: p.state.Config.CookiesFilePath,
	}
	capturedByHandler, err := handler.Archive(ctx, link.RawURL, workDir, deps)
	if stepID != 0 {
		p.finishJobStep(ctx, stepID, err)
	}
	if err != nil {
		p.state.Log.Warn("handler archive failed", "archive_id", archive.ID, "handler", handler.ID(), "error", err)
		p.fail(ctx, archive, err)
		return
	}

	if err := p.captureBrowserArtifacts(ctx, link, workDir, capturedByHandler); err != nil {
		p.state.Log.Warn("browser capture failed", "archive_id", archive.ID, "error", err)
	}

	if err := p.persistArtifacts(ctx, archive.ID, link.ID, capturedByHandler); err != nil {
		p.state.Log.Error("persisting artifacts failed", "archive_id", archive.ID, "error", err)
		p.fail(ctx, archive, err)
		return
	}

	updated := model.Archive{
		Title:         capturedByHandler.Title,
		Author:        capturedByHandler.Author,
		ExtractedText: capturedByHandler.Description,
		PublishedAt:   capturedByHandler.PublishedAt,
		ContentClass:  capturedByHandler.ContentClass,
		PrimaryKey:    primaryKeyFor(archive.ID, capturedByHandler),
		ThumbnailKey:  thumbnailKeyFor(archive.ID, capturedByHandler),
		NSFW:          capturedByHandler.NSFW,
		NSFWSource:    capturedByHandler.NSFWSource,
	}
	if err := p.state.Store.CompleteArchive(ctx, archive.ID, updated); err != nil {
		p.state.Log.Error("completing archive failed", "archive_id", archive.ID, "error", err)
		return
	}
	if err := p.state.Store.MarkLinkArchived(ctx, link.ID); err != nil {
		p.state.Log.Warn("marking link archived failed", "link_id", link.ID, "error", err)
	}

	// Submission to third-party archivers never fails the archive (§4.4
	// step 8, §4.7).
	snapshots := p.state.Submitters.SubmitAll(ctx, link.RawURL)
	if err := p.state.Store.RecordSubmitterURLs(ctx, archive.ID, snapshots["wayback"], snapshots["archive_today"]); err != nil {
		p.state.Log.Warn("recording submitter urls failed", "archive_id", archive.ID, "error", err)
	}
}

func (p *Pool) finishJobStep(ctx context.Context, stepID int64, archiveErr error) {
	status := model.JobStepOK
	errMsg := ""
	if archiveErr != nil {
		status = model.JobStepFailed
		errMsg = archiveErr.Error()
	}
	if err := p.state.Store.FinishJobStep(ctx, stepID, status, errMsg); err != nil {
		p.state.Log.Error("finishing job step failed", "step_id", stepID, "error", err)
	}
}

// captureBrowserArtifacts runs the independent browser-produced captures
// (§6.3.3) alongside whatever the handler already produced, appending each
// enabled output onto the Capture's extra files so persistArtifacts uploads
// them uniformly.
func (p *Pool) captureBrowserArtifacts(ctx context.Context, link *model.Link, workDir string, capt *model.Capture) error {
	cfg := p.state.Config

	browserDir := filepath.Join(workDir, "browser")
	if err := os.MkdirAll(browserDir, 0o755); err != nil {
		return fmt.Errorf("creating browser capture dir: %w", err)
	}

	if p.state.Browser != nil {
		result, err := p.state.Browser.Capture(link.RawURL, browserDir, capture.BrowserOptions{
			Screenshot: cfg.ScreenshotEnabled,
			PDF:        cfg.PDFEnabled,
			MHTML:      cfg.MHTMLEnabled,
			Viewport:   playwright.Size{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
			TimeoutMS:  float64(cfg.ArchiveProcessingTimeout.Milliseconds()),
		})
		if err != nil {
			return fmt.Errorf("capturing browser artifacts for %q: %w", link.RawURL, err)
		}

		if result.ScreenshotPath != "" {
			capt.ExtraFiles = append(capt.ExtraFiles, model.CaptureFile{Path: result.ScreenshotPath, Kind: model.ArtifactScreenshot})
		}
		if result.PDFPath != "" {
			capt.ExtraFiles = append(capt.ExtraFiles, model.CaptureFile{Path: result.PDFPath, Kind: model.ArtifactPDF})
		}
		if result.MHTMLPath != "" {
			capt.ExtraFiles = append(capt.ExtraFiles, model.CaptureFile{Path: result.MHTMLPath, Kind: model.ArtifactMHTML})
		}
		if result.CompleteHTMLPath != "" {
			capt.ExtraFiles = append(capt.ExtraFiles, model.CaptureFile{Path: result.CompleteHTMLPath, Kind: model.ArtifactCompleteHTML})
		}
	}

	if cfg.MonolithEnabled {
		if monolithPath, err := capture.DownloadMonolith(ctx, link.RawURL, browserDir, cfg.ArchiveProcessingTimeout); err == nil {
			capt.ExtraFiles = append(capt.ExtraFiles, model.CaptureFile{Path: monolithPath, Kind: model.ArtifactCompleteHTML})
		} else {
			p.state.Log.Warn("monolith capture failed", "url", link.RawURL, "error", err)
		}
	}

	return nil
}

// persistArtifacts uploads the primary file, optional thumbnail, and every
// extra file to the Object Store, inserting an Artifact row for each,
// applying the video dedup rule of §4.4 step 6 and the near-duplicate image
// dedup rule of §9.
func (p *Pool) persistArtifacts(ctx context.Context, archiveID, linkID int64, capt *model.Capture) error {
	if capt.ContentClass == model.ContentVideo && capt.VideoID != "" {
		return p.persistVideoPrimary(ctx, archiveID, linkID, capt)
	}

	if capt.PrimaryPath != "" {
		if err := p.uploadArtifact(ctx, archiveID, linkID, capt.PrimaryPath, primaryKindFor(capt.ContentClass), capt.MetadataYAML); err != nil {
			return err
		}
	}
	if capt.ThumbnailPath != "" {
		if err := p.uploadArtifact(ctx, archiveID, linkID, capt.ThumbnailPath, model.ArtifactThumbnail, ""); err != nil {
			return err
		}
	}
	for _, extra := range capt.ExtraFiles {
		if err := p.uploadArtifact(ctx, archiveID, linkID, extra.Path, extra.Kind, ""); err != nil {
			return err
		}
	}
	return nil
}

// persistVideoPrimary implements the canonical-video dedup rule: if
// (platform, video_id) already has a Video File row, reference the
// existing object instead of re-uploading; otherwise upload once under
// videos/{video_id}.{ext} and record the new Video File.
func (p *Pool) persistVideoPrimary(ctx context.Context, archiveID, linkID int64, capt *model.Capture) error {
	existing, err := p.state.Store.GetVideoFile(ctx, capt.Platform, capt.VideoID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("looking up video file (%s, %s): %w", capt.Platform, capt.VideoID, err)
	}

	var videoFileID int64
	var objectKey, contentType string
	var sizeBytes int64

	if err == nil {
		videoFileID = existing.ID
		objectKey = existing.ObjectKey
		contentType = existing.ContentType
		sizeBytes = existing.SizeBytes
	} else {
		data, err := os.ReadFile(capt.PrimaryPath)
		if err != nil {
			return fmt.Errorf("reading video file %q: %w", capt.PrimaryPath, err)
		}
		ext := filepath.Ext(capt.PrimaryPath)
		objectKey = objectstore.VideoKey(capt.VideoID, trimDot(ext))
		contentType = http.DetectContentType(data)
		sizeBytes = int64(len(data))

		if err := p.state.Objects.PutBytes(ctx, objectKey, data, contentType); err != nil {
			return fmt.Errorf("uploading video %q: %w", objectKey, err)
		}

		metaKey := objectstore.VideoMetaKey(capt.VideoID)
		if capt.MetadataYAML != "" {
			if err := p.state.Objects.PutBytes(ctx, metaKey, []byte(capt.MetadataYAML), "application/yaml"); err != nil {
				return fmt.Errorf("uploading video metadata %q: %w", metaKey, err)
			}
		}

		vf := &model.VideoFile{
			Platform:    capt.Platform,
			VideoID:     capt.VideoID,
			ObjectKey:   objectKey,
			MetaKey:     metaKey,
			SizeBytes:   sizeBytes,
			ContentType: contentType,
		}
		if err := p.state.Store.InsertVideoFile(ctx, vf); err != nil {
			return fmt.Errorf("recording video file (%s, %s): %w", capt.Platform, capt.VideoID, err)
		}
		videoFileID = vf.ID
	}

	hash, err := contentHash(capt.PrimaryPath)
	if err != nil {
		return err
	}

	artifact := &model.Artifact{
		ArchiveID:    archiveID,
		Kind:         model.ArtifactVideo,
		ObjectKey:    objectKey,
		ContentType:  contentType,
		SizeBytes:    sizeBytes,
		ContentHash:  hash,
		VideoFileID:  &videoFileID,
		MetadataYAML: capt.MetadataYAML,
	}
	if err := p.state.Store.InsertArtifact(ctx, artifact); err != nil {
		return fmt.Errorf("recording video artifact for archive %d: %w", archiveID, err)
	}

	if capt.ThumbnailPath != "" {
		if err := p.uploadArtifact(ctx, archiveID, linkID, capt.ThumbnailPath, model.ArtifactThumbnail, ""); err != nil {
			return err
		}
	}
	for _, extra := range capt.ExtraFiles {
		if err := p.uploadArtifact(ctx, archiveID, linkID, extra.Path, extra.Kind, ""); err != nil {
			return err
		}
	}
	return nil
}

// uploadArtifact uploads path to the Object Store and records an Artifact
// row. For ArtifactImage kinds it first hashes the image and scans every
// prior image artifact recorded against the same Link (§9's near-duplicate
// dedup rule, the image analogue of persistVideoPrimary's canonical-video
// rule): a match within PerceptualHashThreshold is linked by referencing the
// existing object instead of re-uploading.
func (p *Pool) uploadArtifact(ctx context.Context, archiveID, linkID int64, path string, kind model.ArtifactKind, metadataYAML string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if len(data) == 0 {
		p.state.Log.Warn("skipping zero-byte artifact", "archive_id", archiveID, "path", path)
		return nil
	}

	if kind == model.ArtifactImage {
		if dup, err := p.findDuplicateImage(ctx, linkID, path); err != nil {
			p.state.Log.Warn("perceptual hash dedup lookup failed", "archive_id", archiveID, "error", err)
		} else if dup != nil {
			artifact := &model.Artifact{
				ArchiveID:      archiveID,
				Kind:           kind,
				ObjectKey:      dup.ObjectKey,
				ContentType:    dup.ContentType,
				SizeBytes:      dup.SizeBytes,
				ContentHash:    dup.ContentHash,
				PerceptualHash: dup.PerceptualHash,
				MetadataYAML:   metadataYAML,
			}
			if err := p.state.Store.InsertArtifact(ctx, artifact); err != nil {
				return fmt.Errorf("recording deduplicated image artifact for archive %d: %w", archiveID, err)
			}
			return nil
		}
	}

	key := objectstore.ArchiveKey(archiveID, relKeyFor(kind, path))
	contentType := http.DetectContentType(data)
	if err := p.state.Objects.PutBytes(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("uploading %q: %w", key, err)
	}

	hash := sha256.Sum256(data)
	artifact := &model.Artifact{
		ArchiveID:    archiveID,
		Kind:         kind,
		ObjectKey:    key,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		ContentHash:  hex.EncodeToString(hash[:]),
		MetadataYAML: metadataYAML,
	}
	if kind == model.ArtifactImage {
		if hash, err := capture.PerceptualHash(path); err == nil {
			artifact.PerceptualHash = hash
		}
	}
	if err := p.state.Store.InsertArtifact(ctx, artifact); err != nil {
		return fmt.Errorf("recording artifact %q for archive %d: %w", key, archiveID, err)
	}
	return nil
}

// findDuplicateImage hashes path and compares it against every image
// artifact previously recorded for linkID, returning the first match whose
// Hamming distance is within the configured threshold, or nil if none.
func (p *Pool) findDuplicateImage(ctx context.Context, linkID int64, path string) (*model.Artifact, error) {
	newHash, err := capture.PerceptualHash(path)
	if err != nil || newHash == "" {
		return nil, nil
	}

	candidates, err := p.state.Store.ImageArtifactsForLink(ctx, linkID, model.ArtifactImage)
	if err != nil {
		return nil, fmt.Errorf("listing image artifacts for link %d: %w", linkID, err)
	}

	for i := range candidates {
		dist, err := capture.HashDistance(newHash, candidates[i].PerceptualHash)
		if err != nil {
			continue
		}
		if dist <= p.state.Config.PerceptualHashThreshold {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// relKeyFor maps an artifact kind onto the stable key layout of spec §4.6.
func relKeyFor(kind model.ArtifactKind, path string) string {
	base := filepath.Base(path)
	switch kind {
	case model.ArtifactRawHTML:
		return "fetch/" + base
	case model.ArtifactScreenshot:
		return "render/" + base
	case model.ArtifactPDF:
		return "render/page.pdf"
	case model.ArtifactMHTML:
		return "render/complete.mhtml"
	case model.ArtifactCompleteHTML:
		return "render/" + base
	case model.ArtifactExtractedText:
		return "text/extracted.txt"
	case model.ArtifactThumbnail:
		return "media/thumb" + filepath.Ext(base)
	case model.ArtifactSubtitles:
		return "media/subtitles/" + base
	case model.ArtifactComments:
		return "media/comments.json"
	case model.ArtifactImage, model.ArtifactVideo, model.ArtifactMetadata:
		return "media/" + base
	default:
		return "media/" + base
	}
}

func primaryKindFor(class model.ContentClass) model.ArtifactKind {
	switch class {
	case model.ContentVideo:
		return model.ArtifactVideo
	case model.ContentImage, model.ContentGallery:
		return model.ArtifactImage
	default:
		return model.ArtifactRawHTML
	}
}

func primaryKeyFor(archiveID int64, capt *model.Capture) string {
	if capt.PrimaryPath == "" {
		return ""
	}
	return objectstore.ArchiveKey(archiveID, relKeyFor(primaryKindFor(capt.ContentClass), capt.PrimaryPath))
}

func thumbnailKeyFor(archiveID int64, capt *model.Capture) string {
	if capt.ThumbnailPath == "" {
		return ""
	}
	return objectstore.ArchiveKey(archiveID, relKeyFor(model.ArtifactThumbnail, capt.ThumbnailPath))
}

func contentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hashing %q: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

// fail classifies err and drives the archive to the corresponding terminal
// or re-enterable state per §4.4's state diagram.
func (p *Pool) fail(ctx context.Context, archive *model.Archive, err error) {
	switch classify(err) {
	case outcomeAuthRequired:
		if e := p.state.Store.RequireAuth(ctx, archive.ID, err.Error()); e != nil {
			p.state.Log.Error("marking archive auth_required failed", "archive_id", archive.ID, "error", e)
		}
	case outcomePermanent:
		if e := p.state.Store.SkipArchive(ctx, archive.ID, err.Error()); e != nil {
			p.state.Log.Error("skipping archive failed", "archive_id", archive.ID, "error", e)
		}
	default:
		if archive.RetryCount+1 >= p.state.Config.MaxRetries {
			if e := p.state.Store.SkipArchive(ctx, archive.ID, err.Error()); e != nil {
				p.state.Log.Error("skipping exhausted archive failed", "archive_id", archive.ID, "error", e)
			}
			return
		}
		nextRetryAt := time.Now().UTC().Add(backoffDelay(archive.RetryCount))
		if e := p.state.Store.FailArchive(ctx, archive.ID, err.Error(), nextRetryAt); e != nil {
			p.state.Log.Error("recording transient failure failed", "archive_id", archive.ID, "error", e)
		}
	}
}
