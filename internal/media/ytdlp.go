package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// YtDlpDownloader downloads YouTube media with the yt-dlp CLI
type YtDlpDownloader struct {
	binary  string
	cookies string
	tempDir string
}

// NewYtDlpDownloader creates a downloader. cookies is passed through
// prepareCookieFile on every download.
func NewYtDlpDownloader(binary, cookies, tempDir string) *YtDlpDownloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlpDownloader{binary: binary, cookies: cookies, tempDir: tempDir}
}

// DownloadVideo saves the best audio stream (or the best muxed stream)
// to dest without post-processing
func (d *YtDlpDownloader) DownloadVideo(ctx context.Context, res types.Resource, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--force-overwrites",
		"-o", dest,
	}

	cookieFile, cleanup, err := prepareCookieFile(d.cookies, d.tempDir)
	if err != nil {
		log.Printf("yt-dlp: ignoring cookies: %v", err)
	} else if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	defer cleanup()

	url := res.URL
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + res.ID
	}
	args = append(args, url)

	log.Printf("Using yt-dlp to download: %s", url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp failed: %v\nOutput: %s", err, string(output))
	}

	log.Printf("YouTube media downloaded for %s", res.ID)
	return nil
}
