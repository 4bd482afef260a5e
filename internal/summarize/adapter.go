package summarize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// Client produces a summary for a block of text
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Summary is the adapter result
type Summary struct {
	Text   string
	Cached bool
}

// Adapter caches summaries per resource in front of a Client
type Adapter struct {
	store  storage.Store
	client Client
}

// NewAdapter creates a summarizer adapter
func NewAdapter(store storage.Store, client Client) *Adapter {
	return &Adapter{store: store, client: client}
}

// EnsureSummary returns the cached summary or generates one from the
// transcript. Failures are never cached.
func (a *Adapter) EnsureSummary(ctx context.Context, resourceID, title, transcript, description string) (Summary, error) {
	if strings.TrimSpace(transcript) == "" {
		return Summary{}, fmt.Errorf("%w: no transcript for %s", types.ErrSummarizationFailed, resourceID)
	}

	rec, err := a.store.Get(ctx, resourceID)
	switch {
	case err == nil && rec.HasSummary():
		log.Printf("Cache hit for summary: %s", resourceID)
		return Summary{Text: *rec.Summary, Cached: true}, nil
	case err != nil && !errors.Is(err, types.ErrRecordNotFound):
		log.Printf("Cache read failed for %s, summarizing anyway: %v", resourceID, err)
	}

	if a.client == nil {
		return Summary{}, fmt.Errorf("%w: no summarizer configured", types.ErrSummarizationFailed)
	}

	log.Printf("Cache miss for summary: %s. Generating", resourceID)
	text, err := a.client.Summarize(ctx, BuildInput(title, transcript, description))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", types.ErrSummarizationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Summary{}, fmt.Errorf("%w: empty summary for %s", types.ErrSummarizationFailed, resourceID)
	}

	if err := a.store.Upsert(ctx, resourceID, storage.Patch{Summary: &text}); err != nil {
		log.Printf("Failed to cache summary for %s: %v", resourceID, err)
	} else {
		log.Printf("Cached summary for %s", resourceID)
	}

	return Summary{Text: text}, nil
}

// BuildInput formats the text handed to the summarizer
func BuildInput(title, transcript, description string) string {
	return fmt.Sprintf("Title: %s\nTranscript: %s\nDescription: %s", title, transcript, description)
}
