package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// AudioStore lays out audio artifacts and transient video containers on
// the local filesystem. Audio files are kept forever; containers live in
// the temp dir and are removed once extraction is done.
type AudioStore struct {
	audioDir string
	tempDir  string
}

// NewAudioStore creates the per-source directories
func NewAudioStore(audioDir, tempDir string) (*AudioStore, error) {
	for _, src := range []types.Source{types.SourceYouTube, types.SourceTikTok} {
		for _, dir := range []string{audioDir, tempDir} {
			if err := os.MkdirAll(filepath.Join(dir, string(src)), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %v", err)
			}
		}
	}
	return &AudioStore{audioDir: audioDir, tempDir: tempDir}, nil
}

// AudioPath is where the resource's MP3 lives
func (as *AudioStore) AudioPath(res types.Resource) string {
	return filepath.Join(as.audioDir, string(res.Source), baseName(res)+".mp3")
}

// ContainerPath is where the resource's raw video container is written
func (as *AudioStore) ContainerPath(res types.Resource) string {
	return filepath.Join(as.tempDir, string(res.Source), baseName(res)+".mp4")
}

// HasAudio reports whether a non-empty MP3 exists for the resource
func (as *AudioStore) HasAudio(res types.Resource) bool {
	return fileExists(as.AudioPath(res))
}

// HasContainer reports whether a raw video container exists
func (as *AudioStore) HasContainer(res types.Resource) bool {
	return fileExists(as.ContainerPath(res))
}

// RemoveContainer deletes the transient container, ignoring absence
func (as *AudioStore) RemoveContainer(res types.Resource) error {
	if err := os.Remove(as.ContainerPath(res)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// TempDir is the root swept by the cleanup scheduler
func (as *AudioStore) TempDir() string {
	return as.tempDir
}

// MediaIndex answers whether a resource still needs its video
// container: not once a transcript is cached or the MP3 is on disk.
type MediaIndex struct {
	*AudioStore
	store Store
}

// NewMediaIndex combines the cache and the audio layout
func NewMediaIndex(store Store, files *AudioStore) *MediaIndex {
	return &MediaIndex{AudioStore: files, store: store}
}

// NeedsContainer reports whether downloading the video would be useful.
// A failed cache read counts as no transcript.
func (m *MediaIndex) NeedsContainer(ctx context.Context, res types.Resource) bool {
	if m.HasAudio(res) {
		return false
	}
	rec, err := m.store.Get(ctx, res.ID)
	return err != nil || !rec.HasTranscript()
}

// baseName: {id} for YouTube, {username}_video_{id} for TikTok
func baseName(res types.Resource) string {
	switch res.Source {
	case types.SourceTikTok:
		if res.Username != "" {
			return fmt.Sprintf("%s_video_%s", sanitizeFilename(res.Username), res.ID)
		}
	}
	return sanitizeFilename(res.ID)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// sanitizeFilename removes characters that are unsafe in filenames
func sanitizeFilename(name string) string {
	result := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
