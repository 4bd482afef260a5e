package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

type countingPlatform struct {
	raw   json.RawMessage
	err   error
	calls int
}

func (p *countingPlatform) Fetch(ctx context.Context, res types.Resource) (json.RawMessage, error) {
	p.calls++
	return p.raw, p.err
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFetcherCachesFirstResponse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	yt := &countingPlatform{raw: json.RawMessage(youtubeFixture)}
	f := NewFetcher(store, yt, nil)

	first, err := f.Fetch(ctx, shortRes)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, shortRes)
	require.NoError(t, err)

	assert.Equal(t, 1, yt.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "Grounded", *second.Title)

	rec, err := store.Get(ctx, shortRes.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceYouTube, rec.Source)
	assert.JSONEq(t, youtubeFixture, string(rec.RawMetadata))
	assert.Nil(t, rec.Transcript)
}

func TestFetcherMergesIntoTranscriptOnlyRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	transcript := "hello"
	require.NoError(t, store.Upsert(ctx, shortRes.ID, storage.Patch{Transcript: &transcript}))

	yt := &countingPlatform{raw: json.RawMessage(youtubeFixture)}
	_, err := NewFetcher(store, yt, nil).Fetch(ctx, shortRes)
	require.NoError(t, err)
	assert.Equal(t, 1, yt.calls)

	rec, err := store.Get(ctx, shortRes.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Transcript)
	assert.Equal(t, "hello", *rec.Transcript)
	assert.NotNil(t, rec.RawMetadata)
}

func TestFetcherTreatsCorruptCacheAsMiss(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, shortRes.ID, storage.Patch{
		Source:      types.SourceYouTube,
		RawMetadata: json.RawMessage(`{"items":[]}`),
	}))

	yt := &countingPlatform{raw: json.RawMessage(youtubeFixture)}
	md, err := NewFetcher(store, yt, nil).Fetch(ctx, shortRes)
	require.NoError(t, err)
	assert.Equal(t, 1, yt.calls)
	assert.Equal(t, "Grounded", *md.Title)

	rec, err := store.Get(ctx, shortRes.ID)
	require.NoError(t, err)
	assert.JSONEq(t, youtubeFixture, string(rec.RawMetadata))
}

func TestFetcherDoesNotCacheFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", types.ErrVideoNotFound, types.ErrVideoNotFound},
		{"upstream", types.ErrUpstreamFetch, types.ErrUpstreamFetch},
		{"unclassified", errors.New("boom"), types.ErrUpstreamFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			yt := &countingPlatform{err: tt.err}

			_, err := NewFetcher(store, yt, nil).Fetch(ctx, shortRes)
			assert.ErrorIs(t, err, tt.want)

			_, err = store.Get(ctx, shortRes.ID)
			assert.ErrorIs(t, err, types.ErrRecordNotFound)
		})
	}
}

func TestFetcherRejectsUnusableUpstreamResponse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	yt := &countingPlatform{raw: json.RawMessage(`{"kind":"youtube#videoListResponse"}`)}

	_, err := NewFetcher(store, yt, nil).Fetch(ctx, shortRes)
	assert.ErrorIs(t, err, types.ErrUpstreamFetch)

	_, err = store.Get(ctx, shortRes.ID)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestFetcherDispatchesBySource(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	yt := &countingPlatform{raw: json.RawMessage(youtubeFixture)}
	tt := &countingPlatform{raw: json.RawMessage(`{"video_id":"7300000000000000001","video_description":"pasta","author_name":"Chef"}`)}
	f := NewFetcher(store, yt, tt)

	md, err := f.Fetch(ctx, tiktokRes)
	require.NoError(t, err)
	assert.Equal(t, 0, yt.calls)
	assert.Equal(t, 1, tt.calls)
	assert.Equal(t, "pasta", *md.Title)

	_, err = NewFetcher(store, yt, nil).Fetch(ctx, types.Resource{Source: types.SourceTikTok, ID: "other"})
	assert.ErrorIs(t, err, types.ErrUpstreamFetch)
}
