package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// Platform fetches the raw metadata blob for a resource
type Platform interface {
	Fetch(ctx context.Context, res types.Resource) (json.RawMessage, error)
}

// Fetcher returns normalized metadata, reading through the cache
type Fetcher struct {
	store   storage.Store
	youtube Platform
	tiktok  Platform
}

// NewFetcher creates a metadata fetcher
func NewFetcher(store storage.Store, youtube, tiktok Platform) *Fetcher {
	return &Fetcher{
		store:   store,
		youtube: youtube,
		tiktok:  tiktok,
	}
}

// Fetch serves cached metadata when it parses, otherwise calls the
// platform once and caches the raw response
func (f *Fetcher) Fetch(ctx context.Context, res types.Resource) (types.Metadata, error) {
	rec, err := f.store.Get(ctx, res.ID)
	switch {
	case err == nil && rec.RawMetadata != nil:
		md, err := normalize(res, rec.RawMetadata)
		if err == nil {
			log.Printf("Cache hit for metadata: %s", res.ID)
			return md, nil
		}
		log.Printf("Cached metadata for %s unusable, refetching: %v", res.ID, err)
	case err != nil && !errors.Is(err, types.ErrRecordNotFound):
		log.Printf("Cache read failed for %s, fetching from %s: %v", res.ID, res.Source, err)
	}

	platform, err := f.platform(res.Source)
	if err != nil {
		return types.Metadata{}, err
	}

	log.Printf("Cache miss for metadata: %s. Fetching from %s", res.ID, res.Source)
	raw, err := platform.Fetch(ctx, res)
	if err != nil {
		if !errors.Is(err, types.ErrVideoNotFound) && !errors.Is(err, types.ErrUpstreamFetch) {
			err = fmt.Errorf("%w: %v", types.ErrUpstreamFetch, err)
		}
		return types.Metadata{}, err
	}

	md, err := normalize(res, raw)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("%w: unusable response: %v", types.ErrUpstreamFetch, err)
	}

	if err := f.store.Upsert(ctx, res.ID, storage.Patch{Source: res.Source, RawMetadata: raw}); err != nil {
		log.Printf("Failed to cache metadata for %s: %v", res.ID, err)
	} else {
		log.Printf("Cached metadata for %s (source: %s)", res.ID, res.Source)
	}

	return md, nil
}

func (f *Fetcher) platform(src types.Source) (Platform, error) {
	switch src {
	case types.SourceYouTube:
		if f.youtube != nil {
			return f.youtube, nil
		}
	case types.SourceTikTok:
		if f.tiktok != nil {
			return f.tiktok, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown source %q", types.ErrInvalidURL, src)
	}
	return nil, fmt.Errorf("%w: no %s client configured", types.ErrUpstreamFetch, src)
}

func normalize(res types.Resource, raw json.RawMessage) (types.Metadata, error) {
	switch res.Source {
	case types.SourceYouTube:
		return NormalizeYouTube(raw)
	case types.SourceTikTok:
		return NormalizeTikTok(raw, res)
	}
	return types.Metadata{}, fmt.Errorf("unknown source %q", res.Source)
}
