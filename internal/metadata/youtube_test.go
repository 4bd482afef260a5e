package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

const youtubeFixture = `{
  "kind": "youtube#videoListResponse",
  "items": [{
    "id": "o4XRpgyz2O8",
    "snippet": {
      "title": "Grounded",
      "description": "a short",
      "publishedAt": "2024-03-01T12:00:00Z",
      "channelTitle": "Channel",
      "tags": ["funny", "shorts"],
      "thumbnails": {
        "default": {"url": "https://i.ytimg.com/default.jpg"},
        "standard": {"url": "https://i.ytimg.com/sddefault.jpg"}
      }
    }
  }]
}`

func newFakeYouTube(t *testing.T, status int, body string) (*YouTubeClient, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "o4XRpgyz2O8", r.URL.Query().Get("id"))
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewYouTubeClient(context.Background(), "test-key", 100,
		option.WithEndpoint(srv.URL+"/youtube/v3/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client, &calls
}

var shortRes = types.Resource{Source: types.SourceYouTube, ID: "o4XRpgyz2O8"}

func TestYouTubeClientFetch(t *testing.T) {
	client, calls := newFakeYouTube(t, http.StatusOK, youtubeFixture)

	raw, err := client.Fetch(context.Background(), shortRes)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	md, err := NormalizeYouTube(raw)
	require.NoError(t, err)
	assert.Equal(t, "Grounded", *md.Title)
	assert.Equal(t, "o4XRpgyz2O8", *md.ID)
	assert.Equal(t, "https://i.ytimg.com/sddefault.jpg", *md.Thumbnail)
	assert.Equal(t, []string{"funny", "shorts"}, md.Tags)
}

func TestYouTubeClientEmptyItemsIsNotFound(t *testing.T) {
	client, _ := newFakeYouTube(t, http.StatusOK, `{"items":[]}`)

	_, err := client.Fetch(context.Background(), shortRes)
	assert.ErrorIs(t, err, types.ErrVideoNotFound)
}

func TestYouTubeClientServerError(t *testing.T) {
	client, _ := newFakeYouTube(t, http.StatusForbidden, `{"error":{"code":403,"message":"quota"}}`)

	_, err := client.Fetch(context.Background(), shortRes)
	assert.ErrorIs(t, err, types.ErrUpstreamFetch)
}

func TestNormalizeYouTubeMissingFields(t *testing.T) {
	md, err := NormalizeYouTube([]byte(`{"items":[{"id":"x","snippet":{"thumbnails":{"high":{"url":"h.jpg"}}}}]}`))
	require.NoError(t, err)
	assert.Nil(t, md.Title)
	assert.Nil(t, md.Description)
	assert.Nil(t, md.Tags)
	assert.Equal(t, "h.jpg", *md.Thumbnail)
}

func TestNormalizeYouTubeRejectsUnusable(t *testing.T) {
	for _, raw := range []string{`{}`, `{"items":[]}`, `"just a string"`, `[1,2]`} {
		_, err := NormalizeYouTube([]byte(raw))
		assert.ErrorIs(t, err, types.ErrCacheCorruption, raw)
	}
}
