package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

func TestResolveYouTubeForms(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=o4XRpgyz2O8",
		"https://www.youtube.com/shorts/o4XRpgyz2O8",
		"https://youtu.be/o4XRpgyz2O8",
		"youtube.com/shorts/o4XRpgyz2O8",
		"http://youtube.com/watch?v=o4XRpgyz2O8",
	}
	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			res, err := Resolve(u)
			require.NoError(t, err)
			assert.Equal(t, types.SourceYouTube, res.Source)
			assert.Equal(t, "o4XRpgyz2O8", res.ID)
			assert.Equal(t, "https://www.youtube.com/watch?v=o4XRpgyz2O8", res.URL)
		})
	}
}

func TestResolveTikTok(t *testing.T) {
	res, err := Resolve("https://www.tiktok.com/@user/video/1234567890")
	require.NoError(t, err)
	assert.Equal(t, types.SourceTikTok, res.Source)
	assert.Equal(t, "1234567890", res.ID)
	assert.Equal(t, "user", res.Username)

	res, err = Resolve("https://www.tiktok.com/@some.creator/video/7300000000000000001?is_from_webapp=1")
	require.NoError(t, err)
	assert.Equal(t, "7300000000000000001", res.ID)
	assert.Equal(t, "some.creator", res.Username)
	assert.Equal(t, "https://www.tiktok.com/@some.creator/video/7300000000000000001", res.URL)
}

func TestResolveInvalid(t *testing.T) {
	urls := []string{
		"",
		"not a url",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/watch?v=o4XRpgyz2O8extra",
		"https://www.youtube.com/channel/UC1234567890",
		"https://vimeo.com/123456",
		"https://www.tiktok.com/@user/photo/1234567890",
		"https://www.tiktok.com/@user/video/abc",
		"https://vm.tiktok.com/ZMabcdef/",
		"https://www.tiktok.com/t/ZTabcdef/",
	}
	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			_, err := Resolve(u)
			assert.ErrorIs(t, err, types.ErrInvalidURL)
		})
	}
}

func TestResolvePinnedSourceRejectsOtherPlatform(t *testing.T) {
	_, err := ResolveYouTube("https://www.tiktok.com/@user/video/1234567890")
	assert.ErrorIs(t, err, types.ErrInvalidURL)

	_, err = ResolveTikTok("https://youtu.be/o4XRpgyz2O8")
	assert.ErrorIs(t, err, types.ErrInvalidURL)
}

func TestShortLinkErrorMentionsUnsupported(t *testing.T) {
	_, err := ResolveTikTok("https://vm.tiktok.com/ZMabcdef/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short links are not supported")
}
