package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// ArchiveEntry is a freshly produced transcript/summary pair
type ArchiveEntry struct {
	ResourceID string
	Source     types.Source
	Title      string
	Transcript string
	Summary    string
	CreatedAt  time.Time
}

// DriveClient archives transcripts and summaries to Google Drive
type DriveClient struct {
	service    *drive.Service
	folderName string
	folderID   string
}

// NewDriveClient creates a new Google Drive client
func NewDriveClient(ctx context.Context, credentialsFile, tokenFile, folderName string) (*DriveClient, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client, err := getClient(ctx, config, tokenFile)
	if err != nil {
		return nil, err
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %v", err)
	}

	return newDriveClient(ctx, srv, folderName)
}

func newDriveClient(ctx context.Context, srv *drive.Service, folderName string) (*DriveClient, error) {
	dc := &DriveClient{
		service:    srv,
		folderName: folderName,
	}
	id, err := dc.findOrCreateFolder(ctx, folderName, "")
	if err != nil {
		return nil, fmt.Errorf("unable to prepare folder %q: %v", folderName, err)
	}
	dc.folderID = id
	return dc, nil
}

// getClient loads the saved token, or runs the console consent flow once
func getClient(ctx context.Context, config *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser:\n%v\n", authURL)
	fmt.Print("Enter authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %v", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %v", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %v", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Archive uploads a text document to <folder>/<source>/ and returns its link
func (dc *DriveClient) Archive(ctx context.Context, entry ArchiveEntry) (string, error) {
	folderID, err := dc.findOrCreateFolder(ctx, string(entry.Source), dc.folderID)
	if err != nil {
		return "", err
	}

	doc := &drive.File{
		Name:     fmt.Sprintf("%s_%s.txt", entry.CreatedAt.Format("20060102_150405"), sanitizeFilename(entry.ResourceID)),
		Parents:  []string{folderID},
		MimeType: "text/plain",
	}

	created, err := dc.service.Files.Create(doc).
		Media(strings.NewReader(FormatArchive(entry))).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %v", err)
	}

	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id), nil
}

// FormatArchive renders the archived document body
func FormatArchive(entry ArchiveEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resource: %s (%s)\n", entry.ResourceID, entry.Source)
	fmt.Fprintf(&b, "Title: %s\n", entry.Title)
	fmt.Fprintf(&b, "Archived: %s\n\n", entry.CreatedAt.Format(time.RFC3339))
	if entry.Summary != "" {
		fmt.Fprintf(&b, "Summary:\n%s\n\n", entry.Summary)
	}
	fmt.Fprintf(&b, "Transcript:\n%s\n", entry.Transcript)
	return b.String()
}

// findOrCreateFolder finds or creates a folder; an empty parent means root
func (dc *DriveClient) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
		strings.ReplaceAll(name, "'", `\'`))
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	r, err := dc.service.Files.List().Q(query).Spaces("drive").Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for folder: %v", err)
	}
	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	file, err := dc.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create folder: %v", err)
	}
	return file.Id, nil
}
