package transcription

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FFmpegExtractor pulls the audio track out of a video container
type FFmpegExtractor struct {
	ffmpegPath string
}

// NewFFmpegExtractor creates an extractor. An empty path means "ffmpeg" on PATH.
func NewFFmpegExtractor(ffmpegPath string) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegExtractor{ffmpegPath: ffmpegPath}
}

// ExtractMP3 converts src to an MP3 at dst. The file is written under a
// temporary name and renamed, so dst never holds a partial file.
func (e *FFmpegExtractor) ExtractMP3(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create audio directory: %v", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", dst, uuid.New().String())

	// FFmpeg command: drop video, VBR mp3. The muxer is forced because
	// the .tmp suffix hides the format from ffmpeg.
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", src,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-f", "mp3",
		"-y",
		tmp,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(output))
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move audio into place: %v", err)
	}

	log.Printf("Extracted audio: %s -> %s", filepath.Base(src), dst)
	return nil
}

// ValidateAudioFormat checks if the file format is supported
func ValidateAudioFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supportedFormats := []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
