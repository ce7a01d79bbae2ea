// Package model holds the plain data types shared across the pipeline:
// posts pulled from the forum feed, the links found inside them, archive
// attempts, and the artifacts an archive attempt produces.
package model

import "time"

// ArchiveStatus is the Archive state-machine value (see internal/worker).
type ArchiveStatus string

const (
	ArchiveStatusPending      ArchiveStatus = "pending"
	ArchiveStatusProcessing   ArchiveStatus = "processing"
	ArchiveStatusComplete     ArchiveStatus = "complete"
	ArchiveStatusFailed       ArchiveStatus = "failed"
	ArchiveStatusSkipped      ArchiveStatus = "skipped"
	ArchiveStatusAuthRequired ArchiveStatus = "auth_required"
)

// ContentClass classifies what an Archive ultimately captured.
type ContentClass string

const (
	ContentVideo    ContentClass = "video"
	ContentImage    ContentClass = "image"
	ContentGallery  ContentClass = "gallery"
	ContentText     ContentClass = "text"
	ContentPlaylist ContentClass = "playlist"
	ContentThread   ContentClass = "thread"
)

// ArtifactKind enumerates the files an archive attempt can produce.
type ArtifactKind string

const (
	ArtifactRawHTML       ArtifactKind = "raw_html"
	ArtifactCompleteHTML  ArtifactKind = "complete_html"
	ArtifactMHTML         ArtifactKind = "mhtml"
	ArtifactScreenshot    ArtifactKind = "screenshot"
	ArtifactPDF           ArtifactKind = "pdf"
	ArtifactVideo         ArtifactKind = "video"
	ArtifactThumbnail     ArtifactKind = "thumbnail"
	ArtifactMetadata      ArtifactKind = "metadata"
	ArtifactSubtitles     ArtifactKind = "subtitles"
	ArtifactTranscript    ArtifactKind = "transcript"
	ArtifactComments      ArtifactKind = "comments"
	ArtifactExtractedText ArtifactKind = "extracted_text"
	ArtifactImage         ArtifactKind = "image"
)

// Post is a forum post as seen in the feed.
type Post struct {
	ID            int64
	ForumID       string
	Author        string
	Title         string
	OriginalURL   string
	BodyHTML      string
	ContentHash   string
	PublishedAt   time.Time
	ProcessedAt   time.Time
	ThreadID      string
	ThreadPos     int
}

// Link is a unique referenced URL, identified by its normalized form.
type Link struct {
	ID             int64
	NormalizedURL  string
	RawURL         string
	FinalURL       string
	Domain         string
	FirstSeenAt    time.Time
	LastArchivedAt *time.Time
}

// LinkOccurrence records one sighting of a Link inside a Post.
type LinkOccurrence struct {
	ID        int64
	PostID    int64
	LinkID    int64
	InQuote   bool
	Snippet   string
	SeenAt    time.Time
}

// Archive is one attempt-plus-result to capture a Link.
type Archive struct {
	ID               int64
	LinkID           int64
	Status           ArchiveStatus
	Priority         int
	RetryCount       int
	NextRetryAt      *time.Time
	LastAttemptAt    *time.Time
	CreatedAt        time.Time
	Title            string
	Author           string
	ExtractedText    string
	PublishedAt      string
	ContentClass     ContentClass
	PrimaryKey       string
	ThumbnailKey     string
	WaybackURL       string
	ArchiveTodayURL  string
	NSFW             bool
	NSFWSource       string
	LastError        string
}

// Artifact is a single stored file produced for an Archive.
type Artifact struct {
	ID              int64
	ArchiveID       int64
	Kind            ArtifactKind
	ObjectKey       string
	ContentType     string
	SizeBytes       int64
	ContentHash     string
	PerceptualHash  string
	VideoFileID     *int64
	MetadataYAML    string
	CreatedAt       time.Time
}

// VideoFile is a deduplicated, platform-scoped canonical video blob.
type VideoFile struct {
	ID          int64
	Platform    string
	VideoID     string
	ObjectKey   string
	MetaKey     string
	SizeBytes   int64
	ContentType string
	Duration    time.Duration
	CreatedAt   time.Time
}

// JobStepStatus is the terminal state of one Archive Job Step.
type JobStepStatus string

const (
	JobStepOK     JobStepStatus = "ok"
	JobStepFailed JobStepStatus = "failed"
)

// JobStep is an observability record for one capture sub-step of an Archive.
type JobStep struct {
	ID        int64
	ArchiveID int64
	JobType   string
	Status    JobStepStatus
	StartedAt time.Time
	EndedAt   time.Time
	Error     string
}

// Capture is the in-memory result returned by a Site Handler, before
// persistence into Artifact rows.
type Capture struct {
	PrimaryPath   string
	ThumbnailPath string
	MetadataYAML  string
	ExtraFiles    []CaptureFile
	Title         string
	Author        string
	Description   string
	PublishedAt   string // YYYY-MM-DD, empty if the source page gave no parseable date
	ContentClass  ContentClass
	Platform      string
	VideoID       string
	NSFW          bool
	NSFWSource    string
	FinalStatus   int
	CapturedAt    time.Time
}

// CaptureFile is one extra file (subtitle, comments JSON, sidecar metadata)
// produced alongside a Capture's primary file.
type CaptureFile struct {
	Path string
	Kind ArtifactKind
}
