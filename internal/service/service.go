package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/codebuildervaibhav/shorts-vault/internal/media"
	"github.com/codebuildervaibhav/shorts-vault/internal/resolver"
	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/summarize"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// MetadataFetcher returns normalized metadata for a resource
type MetadataFetcher interface {
	Fetch(ctx context.Context, res types.Resource) (types.Metadata, error)
}

// TranscriptPipeline returns a transcript for a resource
type TranscriptPipeline interface {
	EnsureTranscript(ctx context.Context, res types.Resource) (media.Transcript, error)
}

// Summarizer returns a summary for a transcript
type Summarizer interface {
	EnsureSummary(ctx context.Context, resourceID, title, transcript, description string) (summarize.Summary, error)
}

// Archiver stores a copy of fresh results somewhere outside the cache
type Archiver interface {
	Archive(ctx context.Context, entry storage.ArchiveEntry) (string, error)
}

// Progress stages reported by LookupWithProgress
const (
	StageResolved   = "resolved"
	StageMetadata   = "metadata"
	StageTranscript = "transcript"
	StageSummary    = "summary"
	StageDone       = "done"
)

// ProgressEvent describes one completed (or degraded) lookup stage
type ProgressEvent struct {
	Stage      string `json:"stage"`
	ResourceID string `json:"resource_id,omitempty"`
	Source     string `json:"source,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProgressFunc receives stage events. It is called synchronously.
type ProgressFunc func(ProgressEvent)

// Service runs a lookup through every stage and serves cached records
type Service struct {
	store      storage.Store
	fetcher    MetadataFetcher
	pipeline   TranscriptPipeline
	summarizer Summarizer

	archiver       Archiver
	archiveRetries int
	archiveBackoff time.Duration
	archiveTimeout time.Duration
	wg             sync.WaitGroup
}

// New creates the orchestrator
func New(store storage.Store, fetcher MetadataFetcher, pipeline TranscriptPipeline, summarizer Summarizer) *Service {
	return &Service{
		store:          store,
		fetcher:        fetcher,
		pipeline:       pipeline,
		summarizer:     summarizer,
		archiveRetries: 3,
		archiveBackoff: time.Second,
		archiveTimeout: 2 * time.Minute,
	}
}

// SetArchiver enables archiving of fresh transcripts and summaries
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

// Lookup resolves any supported URL and returns the merged payload
func (s *Service) Lookup(ctx context.Context, rawURL string) (*types.LookupResponse, error) {
	return s.LookupWithProgress(ctx, rawURL, "", nil)
}

// LookupSource is Lookup restricted to one platform
func (s *Service) LookupSource(ctx context.Context, rawURL string, src types.Source) (*types.LookupResponse, error) {
	return s.LookupWithProgress(ctx, rawURL, src, nil)
}

// LookupWithProgress runs a lookup and reports each stage. An empty src
// accepts any platform. Only URL and metadata failures return an error;
// transcript and summary failures leave those fields null.
func (s *Service) LookupWithProgress(ctx context.Context, rawURL string, src types.Source, progress ProgressFunc) (*types.LookupResponse, error) {
	report := func(ev ProgressEvent) {
		if progress != nil {
			progress(ev)
		}
	}

	res, err := resolve(rawURL, src)
	if err != nil {
		return nil, err
	}
	report(ProgressEvent{Stage: StageResolved, ResourceID: res.ID, Source: string(res.Source)})

	md, err := s.fetcher.Fetch(ctx, res)
	if err != nil {
		return nil, err
	}
	report(ProgressEvent{Stage: StageMetadata, ResourceID: res.ID, Detail: types.Deref(md.Title)})

	resp := &types.LookupResponse{Metadata: md}
	fresh := false

	transcript, err := s.pipeline.EnsureTranscript(ctx, res)
	if err != nil {
		log.Printf("Transcript unavailable for %s: %v", res.ID, err)
		report(ProgressEvent{Stage: StageTranscript, ResourceID: res.ID, Error: err.Error()})
	} else {
		resp.Transcription = &transcript.Text
		fresh = transcript.Stage != media.StageTranscriptCached
		report(ProgressEvent{Stage: StageTranscript, ResourceID: res.ID, Detail: string(transcript.Stage)})
	}

	if resp.Transcription != nil {
		summary, err := s.summarizer.EnsureSummary(ctx, res.ID,
			types.Deref(md.Title), transcript.Text, types.Deref(md.Description))
		if err != nil {
			log.Printf("Summary unavailable for %s: %v", res.ID, err)
			report(ProgressEvent{Stage: StageSummary, ResourceID: res.ID, Error: err.Error()})
		} else {
			resp.Summary = &summary.Text
			fresh = fresh || !summary.Cached
			detail := "generated"
			if summary.Cached {
				detail = "cached"
			}
			report(ProgressEvent{Stage: StageSummary, ResourceID: res.ID, Detail: detail})
		}
	}

	if fresh && s.archiver != nil {
		s.archiveAsync(storage.ArchiveEntry{
			ResourceID: res.ID,
			Source:     res.Source,
			Title:      types.Deref(md.Title),
			Transcript: types.Deref(resp.Transcription),
			Summary:    types.Deref(resp.Summary),
			CreatedAt:  time.Now(),
		})
	}

	report(ProgressEvent{Stage: StageDone, ResourceID: res.ID})
	return resp, nil
}

// List returns every cached record, newest first
func (s *Service) List(ctx context.Context) ([]storage.Record, error) {
	return s.store.List(ctx)
}

// Get returns one cached record
func (s *Service) Get(ctx context.Context, resourceID string) (*storage.Record, error) {
	return s.store.Get(ctx, resourceID)
}

// Wait blocks until background archive uploads have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) archiveAsync(entry storage.ArchiveEntry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.archiveTimeout)
		defer cancel()

		var lastErr error
		for attempt := 1; attempt <= s.archiveRetries; attempt++ {
			link, err := s.archiver.Archive(ctx, entry)
			if err == nil {
				log.Printf("Archived %s to %s", entry.ResourceID, link)
				return
			}
			lastErr = err
			log.Printf("Archive attempt %d/%d for %s failed: %v", attempt, s.archiveRetries, entry.ResourceID, err)

			if attempt < s.archiveRetries {
				select {
				case <-time.After(time.Duration(attempt*attempt) * s.archiveBackoff):
				case <-ctx.Done():
					log.Printf("Archive of %s abandoned: %v", entry.ResourceID, ctx.Err())
					return
				}
			}
		}
		log.Printf("Giving up archiving %s: %v", entry.ResourceID, lastErr)
	}()
}

func resolve(rawURL string, src types.Source) (types.Resource, error) {
	switch src {
	case types.SourceYouTube:
		return resolver.ResolveYouTube(rawURL)
	case types.SourceTikTok:
		return resolver.ResolveTikTok(rawURL)
	}
	return resolver.Resolve(rawURL)
}
