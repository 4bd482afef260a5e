package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

type fakeDownloader struct {
	calls int
	err   error
	empty bool
}

func (d *fakeDownloader) DownloadVideo(ctx context.Context, res types.Resource, dest string) error {
	d.calls++
	if d.err != nil {
		return d.err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if d.empty {
		return nil
	}
	return os.WriteFile(dest, []byte("container"), 0644)
}

type fakeExtractor struct {
	calls   int
	err     error
	partial bool
}

func (e *fakeExtractor) ExtractMP3(ctx context.Context, src, dst string) error {
	e.calls++
	if e.partial {
		os.WriteFile(dst, []byte("half"), 0644)
	}
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(dst, []byte("mp3"), 0644)
}

type fakeTranscriber struct {
	calls int
	text  string
	err   error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	t.calls++
	return t.text, t.err
}

type fixture struct {
	store       storage.Store
	files       *storage.AudioStore
	youtube     *fakeDownloader
	tiktok      *fakeDownloader
	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	pipeline    *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	files, err := storage.NewAudioStore(filepath.Join(dir, "audio"), filepath.Join(dir, "temp"))
	require.NoError(t, err)

	f := &fixture{
		store:       store,
		files:       files,
		youtube:     &fakeDownloader{},
		tiktok:      &fakeDownloader{},
		extractor:   &fakeExtractor{},
		transcriber: &fakeTranscriber{text: " hello from the short "},
	}
	f.pipeline = NewPipeline(store, files, f.youtube, f.tiktok, f.extractor, f.transcriber)
	return f
}

var (
	ytRes = types.Resource{Source: types.SourceYouTube, ID: "o4XRpgyz2O8", URL: "https://www.youtube.com/watch?v=o4XRpgyz2O8"}
	ttRes = types.Resource{Source: types.SourceTikTok, ID: "1234567890", Username: "user", URL: "https://www.tiktok.com/@user/video/1234567890"}
)

func TestEnsureTranscriptDownloadsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.EnsureTranscript(ctx, ytRes)
	require.NoError(t, err)
	assert.Equal(t, StageDownloaded, first.Stage)
	assert.Equal(t, "hello from the short", first.Text)
	assert.True(t, f.files.HasAudio(ytRes))
	assert.False(t, f.files.HasContainer(ytRes))

	second, err := f.pipeline.EnsureTranscript(ctx, ytRes)
	require.NoError(t, err)
	assert.Equal(t, StageTranscriptCached, second.Stage)
	assert.Equal(t, first.Text, second.Text)

	assert.Equal(t, 1, f.youtube.calls)
	assert.Equal(t, 1, f.extractor.calls)
	assert.Equal(t, 1, f.transcriber.calls)

	rec, err := f.store.Get(ctx, ytRes.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello from the short", *rec.Transcript)
	assert.Nil(t, rec.RawMetadata)
	assert.Equal(t, types.Source(""), rec.Source)
}

func TestEnsureTranscriptUsesCachedAudio(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.files.AudioPath(ytRes), []byte("mp3"), 0644))
	require.NoError(t, os.WriteFile(f.files.ContainerPath(ytRes), []byte("stray"), 0644))

	got, err := f.pipeline.EnsureTranscript(context.Background(), ytRes)
	require.NoError(t, err)
	assert.Equal(t, StageAudioCached, got.Stage)
	assert.Equal(t, 0, f.youtube.calls)
	assert.Equal(t, 0, f.extractor.calls)
	assert.False(t, f.files.HasContainer(ytRes))
}

func TestEnsureTranscriptIgnoresEmptyCachedTranscript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := ""
	require.NoError(t, f.store.Upsert(ctx, ytRes.ID, storage.Patch{Transcript: &empty}))

	got, err := f.pipeline.EnsureTranscript(ctx, ytRes)
	require.NoError(t, err)
	assert.Equal(t, StageDownloaded, got.Stage)
	assert.Equal(t, 1, f.transcriber.calls)
}

func TestEnsureTranscriptReusesTikTokContainer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.files.ContainerPath(ttRes), []byte("from metadata fetch"), 0644))

	got, err := f.pipeline.EnsureTranscript(context.Background(), ttRes)
	require.NoError(t, err)
	assert.Equal(t, StageDownloaded, got.Stage)
	assert.Equal(t, 0, f.tiktok.calls)
	assert.Equal(t, 1, f.extractor.calls)
	assert.False(t, f.files.HasContainer(ttRes))
	assert.FileExists(t, filepath.Join(filepath.Dir(f.files.AudioPath(ttRes)), "user_video_1234567890.mp3"))
}

func TestEnsureTranscriptDownloadsTikTokWhenNoContainer(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.EnsureTranscript(context.Background(), ttRes)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tiktok.calls)
	assert.Equal(t, 0, f.youtube.calls)
}

func TestEnsureTranscriptMediaUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"download fails", func(f *fixture) { f.youtube.err = errors.New("sign in to confirm") }},
		{"download writes nothing", func(f *fixture) { f.youtube.empty = true }},
		{"extraction fails", func(f *fixture) { f.extractor.err = errors.New("invalid data") }},
		{"extraction leaves partial file", func(f *fixture) {
			f.extractor.err = errors.New("killed")
			f.extractor.partial = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			_, err := f.pipeline.EnsureTranscript(context.Background(), ytRes)
			assert.ErrorIs(t, err, types.ErrMediaUnavailable)
			assert.Equal(t, 0, f.transcriber.calls)
			assert.NoFileExists(t, f.files.AudioPath(ytRes))
			assert.NoFileExists(t, f.files.ContainerPath(ytRes))

			_, err = f.store.Get(context.Background(), ytRes.ID)
			assert.ErrorIs(t, err, types.ErrRecordNotFound)
		})
	}
}

func TestEnsureTranscriptTranscriptionFailure(t *testing.T) {
	for name, tr := range map[string]*fakeTranscriber{
		"error": {err: errors.New("service down")},
		"empty": {text: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.pipeline.transcriber = tr

			_, err := f.pipeline.EnsureTranscript(context.Background(), ytRes)
			assert.ErrorIs(t, err, types.ErrTranscriptionFailed)

			_, err = f.store.Get(context.Background(), ytRes.ID)
			assert.ErrorIs(t, err, types.ErrRecordNotFound)

			// audio survives so the next attempt skips the download
			assert.True(t, f.files.HasAudio(ytRes))
		})
	}
}

func TestEnsureTranscriptMergesWithMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Upsert(ctx, ytRes.ID, storage.Patch{
		Source:      types.SourceYouTube,
		RawMetadata: []byte(`{"items":[{"id":"o4XRpgyz2O8"}]}`),
	}))

	_, err := f.pipeline.EnsureTranscript(ctx, ytRes)
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, ytRes.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceYouTube, rec.Source)
	assert.JSONEq(t, `{"items":[{"id":"o4XRpgyz2O8"}]}`, string(rec.RawMetadata))
	assert.Equal(t, "hello from the short", *rec.Transcript)
}
