package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// TikTokRow is the single-row record cached as TikTok raw metadata
type TikTokRow struct {
	VideoID          string   `json:"video_id"`
	VideoDescription string   `json:"video_description"`
	VideoTimestamp   string   `json:"video_timestamp"`
	AuthorName       string   `json:"author_name"`
	VideoCover       string   `json:"video_cover,omitempty"`
	Hashtags         []string `json:"hashtags,omitempty"`
}

// Page is a rendered HTML document plus the session cookies
type Page struct {
	HTML    string
	Cookies []*http.Cookie
}

// PageRenderer loads a page the way a browser would
type PageRenderer interface {
	Render(ctx context.Context, pageURL string) (*Page, error)
}

// ContainerLocator tells the client where the transient video goes and
// whether it is needed at all
type ContainerLocator interface {
	ContainerPath(res types.Resource) string
	NeedsContainer(ctx context.Context, res types.Resource) bool
}

// TikTokClient scrapes video details from the TikTok web page and
// downloads the video container
type TikTokClient struct {
	renderer   PageRenderer
	httpClient *http.Client
	locator    ContainerLocator
	userAgent  string
}

// NewTikTokClient creates a client. locator may be nil, in which case
// Fetch never downloads the video.
func NewTikTokClient(renderer PageRenderer, locator ContainerLocator, userAgent string, timeout time.Duration) *TikTokClient {
	return &TikTokClient{
		renderer:   renderer,
		httpClient: &http.Client{Timeout: timeout},
		locator:    locator,
		userAgent:  userAgent,
	}
}

// Fetch returns the TikTok row for the resource. As a side effect the
// video container is saved for the media pipeline, unless a transcript
// or the audio artifact already exists.
func (c *TikTokClient) Fetch(ctx context.Context, res types.Resource) (json.RawMessage, error) {
	item, page, err := c.scrape(ctx, res)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(item.row())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamFetch, err)
	}

	if c.locator != nil && c.locator.NeedsContainer(ctx, res) {
		dest := c.locator.ContainerPath(res)
		if err := c.download(ctx, item.videoURL(), page.Cookies, dest); err != nil {
			log.Printf("TikTok: video download for %s failed, transcript may be unavailable: %v", res.ID, err)
		} else {
			log.Printf("TikTok: saved video container for %s to %s", res.ID, dest)
		}
	}

	return raw, nil
}

// DownloadVideo re-scrapes the page for a fresh play address and saves
// the video to dest
func (c *TikTokClient) DownloadVideo(ctx context.Context, res types.Resource, dest string) error {
	item, page, err := c.scrape(ctx, res)
	if err != nil {
		return err
	}
	return c.download(ctx, item.videoURL(), page.Cookies, dest)
}

func (c *TikTokClient) scrape(ctx context.Context, res types.Resource) (*tiktokItem, *Page, error) {
	page, err := c.renderer.Render(ctx, res.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: render %s: %v", types.ErrUpstreamFetch, res.URL, err)
	}

	item, err := parseTikTokPage(page.HTML)
	if err != nil {
		return nil, nil, err
	}
	if item.Author.UniqueID == "" {
		item.Author.UniqueID = res.Username
	}
	return item, page, nil
}

func (c *TikTokClient) download(ctx context.Context, videoURL string, cookies []*http.Cookie, dest string) error {
	if videoURL == "" {
		return fmt.Errorf("page has no video address")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://www.tiktok.com/")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download video: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("video download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("failed to save video: %v", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(part)
		return fmt.Errorf("failed to write video: %v", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, dest)
}

type rehydrationData struct {
	DefaultScope struct {
		VideoDetail struct {
			StatusCode int `json:"statusCode"`
			ItemInfo   struct {
				ItemStruct tiktokItem `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type tiktokItem struct {
	ID         string    `json:"id"`
	Desc       string    `json:"desc"`
	CreateTime flexInt64 `json:"createTime"`
	Author     struct {
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Video struct {
		Cover        string `json:"cover"`
		PlayAddr     string `json:"playAddr"`
		DownloadAddr string `json:"downloadAddr"`
	} `json:"video"`
	TextExtra []struct {
		HashtagName string `json:"hashtagName"`
	} `json:"textExtra"`
}

func (it *tiktokItem) row() TikTokRow {
	row := TikTokRow{
		VideoID:          it.ID,
		VideoDescription: it.Desc,
		AuthorName:       it.Author.Nickname,
		VideoCover:       it.Video.Cover,
	}
	if row.AuthorName == "" {
		row.AuthorName = it.Author.UniqueID
	}
	if it.CreateTime > 0 {
		row.VideoTimestamp = time.Unix(int64(it.CreateTime), 0).UTC().Format(time.RFC3339)
	}
	for _, extra := range it.TextExtra {
		if extra.HashtagName != "" {
			row.Hashtags = append(row.Hashtags, extra.HashtagName)
		}
	}
	return row
}

func (it *tiktokItem) videoURL() string {
	if it.Video.DownloadAddr != "" {
		return it.Video.DownloadAddr
	}
	return it.Video.PlayAddr
}

// parseTikTokPage pulls the video item out of the rehydration script
func parseTikTokPage(html string) (*tiktokItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse page: %v", types.ErrUpstreamFetch, err)
	}

	script := doc.Find("script#__UNIVERSAL_DATA_FOR_REHYDRATION__")
	if script.Length() == 0 {
		return nil, fmt.Errorf("%w: page has no rehydration data", types.ErrUpstreamFetch)
	}

	var data rehydrationData
	if err := json.Unmarshal([]byte(script.First().Text()), &data); err != nil {
		return nil, fmt.Errorf("%w: decode rehydration data: %v", types.ErrUpstreamFetch, err)
	}

	item := data.DefaultScope.VideoDetail.ItemInfo.ItemStruct
	if item.ID == "" {
		return nil, fmt.Errorf("%w: status %d", types.ErrVideoNotFound, data.DefaultScope.VideoDetail.StatusCode)
	}
	return &item, nil
}

// NormalizeTikTok maps a cached TikTok row onto Metadata
func NormalizeTikTok(raw json.RawMessage, res types.Resource) (types.Metadata, error) {
	var row TikTokRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return types.Metadata{}, fmt.Errorf("%w: %v", types.ErrCacheCorruption, err)
	}
	if row.VideoID == "" && row.VideoDescription == "" && row.AuthorName == "" {
		return types.Metadata{}, fmt.Errorf("%w: empty TikTok row", types.ErrCacheCorruption)
	}

	id := row.VideoID
	if id == "" {
		id = res.ID
	}
	channel := row.AuthorName
	if channel == "" {
		channel = res.Username
	}

	md := types.Metadata{
		ID:           types.StringPtr(id),
		Title:        types.StringPtr(row.VideoDescription),
		Description:  types.StringPtr(row.VideoDescription),
		PublishedAt:  types.StringPtr(row.VideoTimestamp),
		Thumbnail:    types.StringPtr(row.VideoCover),
		ChannelTitle: types.StringPtr(channel),
	}
	if len(row.Hashtags) > 0 {
		md.Tags = row.Hashtags
	}
	return md, nil
}

// flexInt64 accepts both 1700000000 and "1700000000"
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}
