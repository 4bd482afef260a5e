package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

var (
	// https://www.youtube.com/watch?v={ID}, /shorts/{ID}, https://youtu.be/{ID}
	youtubePattern = regexp.MustCompile(
		`^(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtube\.com/shorts/|youtu\.be/)([a-zA-Z0-9_-]{11})$`)

	// https://www.tiktok.com/@{username}/video/{numeric ID}
	tiktokPattern = regexp.MustCompile(
		`^https://www\.tiktok\.com/@?([^/?#]+)/video/(\d+)(?:[/?#].*)?$`)

	// vm.tiktok.com/{code}, vt.tiktok.com/{code}, tiktok.com/t/{code}
	tiktokShortPattern = regexp.MustCompile(
		`^(?:https?://)?(?:(?:vm|vt)\.tiktok\.com/|(?:www\.)?tiktok\.com/t/)`)
)

// Resolve maps a YouTube or TikTok URL to a resource
func Resolve(rawURL string) (types.Resource, error) {
	u := strings.TrimSpace(rawURL)
	switch {
	case u == "":
		return types.Resource{}, fmt.Errorf("%w: url is required", types.ErrInvalidURL)
	case strings.Contains(u, "tiktok.com"):
		return ResolveTikTok(u)
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return ResolveYouTube(u)
	}
	return types.Resource{}, fmt.Errorf("%w: unsupported domain", types.ErrInvalidURL)
}

// ResolveYouTube accepts only watch, shorts and short-link URLs
func ResolveYouTube(rawURL string) (types.Resource, error) {
	u := strings.TrimSpace(rawURL)
	m := youtubePattern.FindStringSubmatch(u)
	if m == nil {
		return types.Resource{}, fmt.Errorf("%w: not a YouTube video URL", types.ErrInvalidURL)
	}
	return types.Resource{
		Source: types.SourceYouTube,
		ID:     m[1],
		URL:    "https://www.youtube.com/watch?v=" + m[1],
	}, nil
}

// ResolveTikTok accepts only full .../@user/video/{id} URLs
func ResolveTikTok(rawURL string) (types.Resource, error) {
	u := strings.TrimSpace(rawURL)
	if tiktokShortPattern.MatchString(u) {
		return types.Resource{}, fmt.Errorf("%w: TikTok short links are not supported, use the full video URL", types.ErrInvalidURL)
	}
	m := tiktokPattern.FindStringSubmatch(u)
	if m == nil {
		return types.Resource{}, fmt.Errorf("%w: not a TikTok video URL", types.ErrInvalidURL)
	}
	username, id := m[1], m[2]
	return types.Resource{
		Source:   types.SourceTikTok,
		ID:       id,
		Username: username,
		URL:      fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, id),
	}, nil
}
