package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// YouTubeClient calls the YouTube Data API v3 videos.list endpoint
type YouTubeClient struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewYouTubeClient creates a client authenticated with an API key.
// Extra options are appended after the key (tests point it at a fake server).
func NewYouTubeClient(ctx context.Context, apiKey string, requestsPerSecond float64, opts ...option.ClientOption) (*YouTubeClient, error) {
	if apiKey == "" {
		log.Println("WARNING: no YouTube API key configured, metadata requests will fail")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	srv, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %v", err)
	}

	return &YouTubeClient{
		service: srv,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// Fetch returns the raw videos.list response for the resource
func (c *YouTubeClient) Fetch(ctx context.Context, res types.Resource) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamFetch, err)
	}

	resp, err := c.service.Videos.List([]string{"snippet"}).
		Id(res.ID).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", types.ErrVideoNotFound, res.ID)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamFetch, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrVideoNotFound, res.ID)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamFetch, err)
	}
	return raw, nil
}

type youtubeResponse struct {
	Items []struct {
		ID      *string `json:"id"`
		Snippet struct {
			Title        *string  `json:"title"`
			Description  *string  `json:"description"`
			PublishedAt  *string  `json:"publishedAt"`
			ChannelTitle *string  `json:"channelTitle"`
			Tags         []string `json:"tags"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// NormalizeYouTube maps a videos.list response onto Metadata
func NormalizeYouTube(raw json.RawMessage) (types.Metadata, error) {
	var resp youtubeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.Metadata{}, fmt.Errorf("%w: %v", types.ErrCacheCorruption, err)
	}
	if len(resp.Items) == 0 {
		return types.Metadata{}, fmt.Errorf("%w: response has no items", types.ErrCacheCorruption)
	}

	item := resp.Items[0]
	md := types.Metadata{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		ChannelTitle: item.Snippet.ChannelTitle,
		Tags:         item.Snippet.Tags,
	}
	for _, size := range []string{"standard", "high", "default"} {
		if thumb, ok := item.Snippet.Thumbnails[size]; ok && thumb.URL != "" {
			md.Thumbnail = types.StringPtr(thumb.URL)
			break
		}
	}
	return md, nil
}
