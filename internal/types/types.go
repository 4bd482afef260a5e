package types

import (
	"encoding/json"
	"fmt"
)

// Source identifies the platform a video belongs to
type Source string

// Source constants
const (
	SourceYouTube Source = "youtube"
	SourceTikTok  Source = "tiktok"
)

// ParseSource converts a stored tag back into a Source
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceYouTube, SourceTikTok:
		return Source(s), nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// MarshalJSON encodes an unset source as null
func (s Source) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Resource is a resolved video reference
type Resource struct {
	Source Source
	ID     string
	// Username is only set for TikTok and is used for artifact filenames.
	Username string
	// URL is the canonical URL handed to download collaborators.
	URL string
}

// Metadata is the platform-independent shape of a video's details
type Metadata struct {
	Title        *string  `json:"title"`
	ID           *string  `json:"id"`
	Description  *string  `json:"description"`
	PublishedAt  *string  `json:"publishedAt"`
	Thumbnail    *string  `json:"thumbnail"`
	ChannelTitle *string  `json:"channelTitle"`
	Tags         []string `json:"tags"`
}

// LookupResponse is returned by a single-resource lookup.
// Every key is always present; unavailable values are null.
type LookupResponse struct {
	Metadata
	Transcription *string `json:"transcription"`
	Summary       *string `json:"summary"`
}

// StringPtr returns nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
