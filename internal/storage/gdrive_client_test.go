package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

func TestFormatArchive(t *testing.T) {
	body := FormatArchive(ArchiveEntry{
		ResourceID: "o4XRpgyz2O8",
		Source:     types.SourceYouTube,
		Title:      "A short",
		Transcript: "spoken words",
		Summary:    "gist",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	assert.Contains(t, body, "Resource: o4XRpgyz2O8 (youtube)")
	assert.Contains(t, body, "Summary:\ngist")
	assert.Contains(t, body, "Transcript:\nspoken words")
	assert.True(t, strings.Index(body, "Summary") < strings.Index(body, "Transcript"))
}

func TestNewDriveClientReusesExistingFolder(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"files":[{"id":"folder123"}]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := drive.NewService(ctx,
		option.WithEndpoint(srv.URL+"/drive/v3/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	dc, err := newDriveClient(ctx, svc, "Shorts Vault")
	require.NoError(t, err)
	assert.Equal(t, "folder123", dc.folderID)
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "name='Shorts Vault'")
}
