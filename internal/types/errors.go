package types

import "errors"

// Request-aborting errors
var (
	ErrInvalidURL    = errors.New("invalid or unsupported url")
	ErrUpstreamFetch = errors.New("upstream metadata fetch failed")
	ErrVideoNotFound = errors.New("video not found")
)

// Enrichment errors. These degrade to null fields and are never cached.
var (
	ErrMediaUnavailable    = errors.New("media unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrSummarizationFailed = errors.New("summarization failed")
)

// Store errors
var (
	ErrCacheCorruption = errors.New("cached payload is corrupt")
	ErrRecordNotFound  = errors.New("record not found")
)
