package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RemoteTranscriber uploads audio to an HTTP speech-to-text service
type RemoteTranscriber struct {
	apiURL     string
	httpClient *http.Client
}

// NewRemoteTranscriber creates a client for the service at apiURL
func NewRemoteTranscriber(apiURL string, timeout time.Duration) *RemoteTranscriber {
	return &RemoteTranscriber{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transcribe posts the file as multipart field "file" and returns the text
func (rt *RemoteTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !ValidateAudioFormat(audioPath) {
		return "", fmt.Errorf("unsupported audio format: %s", filepath.Ext(audioPath))
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %v", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read audio: %v", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rt.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("Sending %s to transcription service", filepath.Base(audioPath))

	resp, err := rt.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	return parseTranscriptionBody(data)
}

// parseTranscriptionBody accepts either a bare JSON string or an object
// with a "text" field
func parseTranscriptionBody(data []byte) (string, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return strings.TrimSpace(text), nil
	}

	var obj struct {
		Text          *string `json:"text"`
		Transcription *string `json:"transcription"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("unexpected transcription response: %v", err)
	}
	switch {
	case obj.Text != nil:
		return strings.TrimSpace(*obj.Text), nil
	case obj.Transcription != nil:
		return strings.TrimSpace(*obj.Transcription), nil
	}
	return "", fmt.Errorf("transcription response has no text")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
