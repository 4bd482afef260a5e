package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for local transcription
type WhisperTranscriber struct {
	modelName  string
	whisperCmd string
	workDir    string
	mu         sync.Mutex // one model load at a time
}

// NewWhisperTranscriber creates a transcriber using `python -m whisper`.
// modelPath may be a bare model name or a ggml file name that contains it.
func NewWhisperTranscriber(modelPath, workDir string) *WhisperTranscriber {
	modelName := "small" // Default to small

	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(modelPath, name) {
			modelName = name
			break
		}
	}

	log.Printf("Initializing Python Whisper with model: %s", modelName)
	log.Printf("Note: Whisper availability will be verified on first transcription")

	return &WhisperTranscriber{
		modelName:  modelName,
		whisperCmd: "python",
		workDir:    workDir,
	}
}

// Transcribe runs Whisper on the audio file and returns the plain text
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !ValidateAudioFormat(audioPath) {
		return "", fmt.Errorf("unsupported audio format: %s", filepath.Ext(audioPath))
	}

	wt.mu.Lock()
	defer wt.mu.Unlock()

	log.Printf("Transcribing with Python Whisper: %s", audioPath)

	outDir, err := os.MkdirTemp(wt.workDir, "whisper_output_")
	if err != nil {
		return "", fmt.Errorf("failed to create whisper output dir: %v", err)
	}
	defer os.RemoveAll(outDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %v", err)
	}

	cmd := exec.CommandContext(ctx, wt.whisperCmd, "-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False", // CPU compatibility
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonData, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return "", fmt.Errorf("failed to read whisper output: %v", err)
	}

	text, err := parseWhisperOutput(jsonData)
	if err != nil {
		return "", err
	}

	log.Printf("Transcription completed: %d chars", len(text))
	return text, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// parseWhisperOutput prefers the top-level text and falls back to
// joining segments
func parseWhisperOutput(data []byte) (string, error) {
	var out WhisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	if text := strings.TrimSpace(out.Text); text != "" {
		return text, nil
	}

	parts := make([]string, 0, len(out.Segments))
	for _, seg := range out.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
