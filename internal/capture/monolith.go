package capture

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// DownloadMonolith runs the monolith CLI to bundle a page (HTML, CSS,
// images, fonts) into one self-contained file, the MONOLITH_ENABLED
// alternative to the browser's own complete-HTML capture — useful on
// pages the headless browser can't render acceptably (§6.3.3).
func DownloadMonolith(ctx context.Context, url, workDir string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outPath := filepath.Join(workDir, "monolith.html")
	cmd := exec.CommandContext(ctx, "monolith", "--no-audio", "--no-video", "-o", outPath, url)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("monolith timed out for %q: %s", url, stderr.String())
		}
		return "", fmt.Errorf("monolith failed for %q: %v: %s", url, err, stderr.String())
	}

	return outPath, nil
}
