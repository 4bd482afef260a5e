package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestSweepRemovesStaleLeftovers(t *testing.T) {
	dir := t.TempDir()
	stale := 3 * time.Hour

	touch(t, filepath.Join(dir, "youtube", "abc.mp4"), stale)
	touch(t, filepath.Join(dir, "tiktok", "user_video_1.mp4.part"), stale)
	touch(t, filepath.Join(dir, "youtube", "abc.mp3.1234.tmp"), stale)
	touch(t, filepath.Join(dir, "cookies_999.txt"), stale)
	touch(t, filepath.Join(dir, "whisper_output_1", "abc.json"), stale)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "whisper_output_1"), time.Now().Add(-stale), time.Now().Add(-stale)))

	fresh := filepath.Join(dir, "youtube", "new.mp4")
	touch(t, fresh, time.Minute)
	unrelated := filepath.Join(dir, "notes.md")
	touch(t, unrelated, stale)

	s := NewScheduler(dir, "", time.Hour, time.Hour)
	assert.Equal(t, 5, s.Sweep(time.Now()))

	assert.FileExists(t, fresh)
	assert.FileExists(t, unrelated)
	assert.NoFileExists(t, filepath.Join(dir, "youtube", "abc.mp4"))
	assert.NoDirExists(t, filepath.Join(dir, "whisper_output_1"))
	assert.DirExists(t, filepath.Join(dir, "youtube"))
}

func TestSweepRemovesPartialAudioOnly(t *testing.T) {
	tempDir := t.TempDir()
	audioDir := t.TempDir()
	stale := 3 * time.Hour

	partial := filepath.Join(audioDir, "tiktok", "user_video_1.mp3.0b6c.tmp")
	touch(t, partial, stale)
	finished := filepath.Join(audioDir, "tiktok", "user_video_1.mp3")
	touch(t, finished, stale)
	other := filepath.Join(audioDir, "youtube", "abc.mp4")
	touch(t, other, stale)
	recent := filepath.Join(audioDir, "youtube", "abc.mp3.77aa.tmp")
	touch(t, recent, time.Minute)

	s := NewScheduler(tempDir, audioDir, time.Hour, time.Hour)
	assert.Equal(t, 1, s.Sweep(time.Now()))

	assert.NoFileExists(t, partial)
	assert.FileExists(t, finished)
	assert.FileExists(t, other)
	assert.FileExists(t, recent)
}

func TestSweepMissingDir(t *testing.T) {
	s := NewScheduler(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "gone"), time.Hour, time.Hour)
	assert.Equal(t, 0, s.Sweep(time.Now()))
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "old.part"), 2*time.Hour)

	s := NewScheduler(dir, "", time.Hour, time.Hour)
	s.Start()
	s.Stop()
	s.Stop()

	assert.NoFileExists(t, filepath.Join(dir, "old.part"))
}
