package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/corona10/goimagehash"
)

// GalleryResult is what a gallery-dl run produced on disk: one or more
// images plus per-image metadata JSON, per spec §6.3.2.
type GalleryResult struct {
	ImagePaths   []string
	PrimaryImage string
}

// DownloadGallery runs gallery-dl against url, writing every image plus a
// sidecar metadata JSON per image into workDir.
func DownloadGallery(ctx context.Context, url, workDir, cookiesFile string, timeout time.Duration) (*GalleryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--write-metadata", "-D", workDir}
	if cookiesFile != "" {
		args = append(args, "--cookies", cookiesFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, "gallery-dl", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gallery-dl timed out for %q: %s", url, stderr.String())
		}
		return nil, fmt.Errorf("gallery-dl failed for %q: %v: %s", url, err, stderr.String())
	}

	var images []string
	err := filepath.Walk(workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if isImageExt(path) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking gallery output in %q: %w", workDir, err)
	}
	if len(images) == 0 {
		return nil, &VideoCaptureError{Kind: "empty_output", Detail: "gallery-dl produced no images"}
	}

	return &GalleryResult{ImagePaths: images, PrimaryImage: images[0]}, nil
}

// PerceptualHash computes a perceptual (difference) hash for an image
// file, used by the worker to decide whether a newly captured image is a
// near-duplicate of one already archived for the same Link — the dedup
// Open Question in spec §9, resolved here by recording a reference to the
// earlier image's stored object instead of uploading the new one
// (see DESIGN.md).
func PerceptualHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %q for hashing: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding %q: %w", path, err)
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", fmt.Errorf("hashing %q: %w", path, err)
	}
	return hash.ToString(), nil
}

// HashDistance returns the Hamming distance between two perceptual hash
// strings produced by PerceptualHash, used against
// PERCEPTUAL_HASH_THRESHOLD to decide near-duplicate status.
func HashDistance(a, b string) (int, error) {
	ha, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", a, err)
	}
	hb, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", b, err)
	}
	return ha.Distance(hb)
}

