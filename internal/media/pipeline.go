package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// Downloader saves the resource's video container to dest
type Downloader interface {
	DownloadVideo(ctx context.Context, res types.Resource, dest string) error
}

// Extractor converts a video container to an MP3 file
type Extractor interface {
	ExtractMP3(ctx context.Context, src, dst string) error
}

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Stage names the step that produced a transcript
type Stage string

// Pipeline stages, cheapest first
const (
	StageTranscriptCached Stage = "transcript_cached"
	StageAudioCached      Stage = "audio_cached"
	StageDownloaded       Stage = "downloaded"
)

// Transcript is the pipeline result
type Transcript struct {
	Text  string
	Stage Stage
}

// Pipeline produces a transcript for a resource, reusing whatever an
// earlier run left behind
type Pipeline struct {
	store       storage.Store
	files       *storage.AudioStore
	youtube     Downloader
	tiktok      Downloader
	extractor   Extractor
	transcriber Transcriber
}

// NewPipeline wires the pipeline collaborators
func NewPipeline(store storage.Store, files *storage.AudioStore, youtube, tiktok Downloader, extractor Extractor, transcriber Transcriber) *Pipeline {
	return &Pipeline{
		store:       store,
		files:       files,
		youtube:     youtube,
		tiktok:      tiktok,
		extractor:   extractor,
		transcriber: transcriber,
	}
}

// EnsureTranscript returns the cached transcript, or transcribes the
// cached MP3, or downloads and extracts the audio first. A new transcript
// is written to the store.
func (p *Pipeline) EnsureTranscript(ctx context.Context, res types.Resource) (Transcript, error) {
	rec, err := p.store.Get(ctx, res.ID)
	switch {
	case err == nil && rec.HasTranscript():
		log.Printf("Cache hit for transcript: %s", res.ID)
		return Transcript{Text: *rec.Transcript, Stage: StageTranscriptCached}, nil
	case err != nil && !errors.Is(err, types.ErrRecordNotFound):
		log.Printf("Cache read failed for %s, continuing without it: %v", res.ID, err)
	}

	stage := StageAudioCached
	if p.files.HasAudio(res) {
		log.Printf("Audio already on disk for %s", res.ID)
		p.removeContainer(res)
	} else {
		if err := p.obtainAudio(ctx, res); err != nil {
			return Transcript{}, err
		}
		stage = StageDownloaded
	}

	text, err := p.transcriber.Transcribe(ctx, p.files.AudioPath(res))
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", types.ErrTranscriptionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Transcript{}, fmt.Errorf("%w: empty transcript for %s", types.ErrTranscriptionFailed, res.ID)
	}

	if err := p.store.Upsert(ctx, res.ID, storage.Patch{Transcript: &text}); err != nil {
		log.Printf("Failed to cache transcript for %s: %v", res.ID, err)
	} else {
		log.Printf("Cached transcript for %s (%d chars)", res.ID, len(text))
	}

	return Transcript{Text: text, Stage: stage}, nil
}

// obtainAudio gets a container (reusing one left by the TikTok metadata
// fetch), extracts the MP3 and always deletes the container
func (p *Pipeline) obtainAudio(ctx context.Context, res types.Resource) error {
	container := p.files.ContainerPath(res)
	defer p.removeContainer(res)

	if res.Source == types.SourceTikTok && p.files.HasContainer(res) {
		log.Printf("Reusing downloaded container for %s", res.ID)
	} else {
		dl, err := p.downloader(res.Source)
		if err != nil {
			return err
		}
		if err := dl.DownloadVideo(ctx, res, container); err != nil {
			return fmt.Errorf("%w: download %s: %v", types.ErrMediaUnavailable, res.ID, err)
		}
		if !p.files.HasContainer(res) {
			return fmt.Errorf("%w: download %s produced no file", types.ErrMediaUnavailable, res.ID)
		}
	}

	audio := p.files.AudioPath(res)
	if err := p.extractor.ExtractMP3(ctx, container, audio); err != nil {
		if rmErr := os.Remove(audio); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("Failed to remove partial audio %s: %v", audio, rmErr)
		}
		return fmt.Errorf("%w: extract %s: %v", types.ErrMediaUnavailable, res.ID, err)
	}
	if !p.files.HasAudio(res) {
		return fmt.Errorf("%w: extraction for %s produced no audio", types.ErrMediaUnavailable, res.ID)
	}
	return nil
}

func (p *Pipeline) downloader(src types.Source) (Downloader, error) {
	var dl Downloader
	switch src {
	case types.SourceYouTube:
		dl = p.youtube
	case types.SourceTikTok:
		dl = p.tiktok
	default:
		return nil, fmt.Errorf("%w: unknown source %q", types.ErrMediaUnavailable, src)
	}
	if dl == nil {
		return nil, fmt.Errorf("%w: no %s downloader configured", types.ErrMediaUnavailable, src)
	}
	return dl, nil
}

func (p *Pipeline) removeContainer(res types.Resource) {
	if err := p.files.RemoveContainer(res); err != nil {
		log.Printf("Failed to remove container for %s: %v", res.ID, err)
	}
}
