package transcription

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriber calls the OpenAI audio transcription endpoint
type OpenAITranscriber struct {
	cli   *openai.Client
	model string
}

// NewOpenAITranscriber creates a transcriber. baseURL is optional and
// points the client at an OpenAI-compatible server.
func NewOpenAITranscriber(apiKey, baseURL, model string) *OpenAITranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{cli: openai.NewClientWithConfig(cfg), model: model}
}

// Transcribe uploads the file and returns the transcript text
func (ot *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !ValidateAudioFormat(audioPath) {
		return "", fmt.Errorf("unsupported audio format: %s", filepath.Ext(audioPath))
	}

	log.Printf("Transcribing with OpenAI (%s): %s", ot.model, audioPath)

	resp, err := ot.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    ot.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
