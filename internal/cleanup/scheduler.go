package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Scheduler periodically removes leftovers of interrupted pipeline runs:
// video containers, partial downloads and Whisper work dirs from the temp
// directory, and half-written extraction files from the audio directory.
// Finished MP3s are never touched.
type Scheduler struct {
	tempDir  string
	audioDir string
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir, audioDir string, interval, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		audioDir: audioDir,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep, then sweeps every interval until Stop
func (s *Scheduler) Start() {
	log.Println("Running initial temp file cleanup...")
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now)
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		log.Println("Cleanup scheduler stopped")
	})
}

// Sweep deletes stale artifacts older than maxAge and returns how many
// were removed. Files that do not look like pipeline leftovers are left
// alone.
func (s *Scheduler) Sweep(now time.Time) int {
	var deletedCount int
	var deletedSize int64

	count, size := s.sweepDir(s.tempDir, now, isLeftover, true)
	deletedCount += count
	deletedSize += size

	if s.audioDir != "" {
		count, size = s.sweepDir(s.audioDir, now, isPartialAudio, false)
		deletedCount += count
		deletedSize += size
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d entries deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
	return deletedCount
}

func (s *Scheduler) sweepDir(root string, now time.Time, match func(name string) bool, workDirs bool) (int, int64) {
	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if path == root {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			return nil
		}

		if info.IsDir() {
			if workDirs && strings.HasPrefix(info.Name(), "whisper_output_") {
				if err := os.RemoveAll(path); err != nil {
					log.Printf("Failed to delete stale dir %s: %v", path, err)
				} else {
					deletedCount++
				}
				return filepath.SkipDir
			}
			return nil
		}

		if !match(info.Name()) {
			return nil
		}

		size := info.Size()
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to delete old file %s: %v", path, err)
			return nil
		}
		deletedCount++
		deletedSize += size
		log.Printf("Deleted old temp file: %s (age: %s, size: %dKB)",
			filepath.Base(path), age.Round(time.Minute), size/1024)
		return nil
	})
	if err != nil {
		log.Printf("Error during cleanup of %s: %v", root, err)
	}
	return deletedCount, deletedSize
}

func isLeftover(name string) bool {
	switch {
	case strings.HasSuffix(name, ".mp4"),
		strings.HasSuffix(name, ".part"),
		strings.HasSuffix(name, ".tmp"),
		strings.HasSuffix(name, ".ytdl"):
		return true
	case strings.HasPrefix(name, "cookies_") && strings.HasSuffix(name, ".txt"):
		return true
	}
	return false
}

// isPartialAudio matches the temp file ffmpeg writes before the rename
func isPartialAudio(name string) bool {
	return strings.Contains(name, ".mp3.") && strings.HasSuffix(name, ".tmp")
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempDir)
	return nil
}
