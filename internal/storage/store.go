package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// Store is the persistent per-resource cache shared by every pipeline stage
type Store interface {
	// Get returns types.ErrRecordNotFound when no row exists
	Get(ctx context.Context, resourceID string) (*Record, error)
	// Upsert inserts the row or updates it in place, touching only the
	// fields set in the patch
	Upsert(ctx context.Context, resourceID string, patch Patch) error
	// List returns every record, newest first
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Record is one cached row
type Record struct {
	ResourceID  string          `json:"resource_id"`
	Source      types.Source    `json:"source"`
	RawMetadata json.RawMessage `json:"raw_metadata"`
	Transcript  *string         `json:"transcript"`
	Summary     *string         `json:"summary"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Patch is a partial write. Nil/empty fields are left untouched.
// Source is only applied when the row has no source yet.
type Patch struct {
	Source      types.Source
	RawMetadata json.RawMessage
	Transcript  *string
	Summary     *string
}

// IsEmpty reports whether the patch would write nothing
func (p Patch) IsEmpty() bool {
	return p.Source == "" && p.RawMetadata == nil && p.Transcript == nil && p.Summary == nil
}

// HasTranscript reports whether a usable transcript is cached
func (r *Record) HasTranscript() bool {
	return r != nil && r.Transcript != nil && *r.Transcript != ""
}

// HasSummary reports whether a usable summary is cached
func (r *Record) HasSummary() bool {
	return r != nil && r.Summary != nil && *r.Summary != ""
}

// decodeRaw turns a stored blob into JSON. Unparseable blobs are kept
// verbatim as a JSON string so listings still render them.
func decodeRaw(resourceID, stored string) json.RawMessage {
	if stored == "" {
		return nil
	}
	if json.Valid([]byte(stored)) {
		return json.RawMessage(stored)
	}
	log.Printf("Cache: raw metadata for %s is not valid JSON (%v)", resourceID, types.ErrCacheCorruption)
	quoted, _ := json.Marshal(stored)
	return quoted
}

// decodeSource parses a stored source tag, dropping unknown values
func decodeSource(resourceID, stored string) types.Source {
	src, err := types.ParseSource(stored)
	if err != nil {
		log.Printf("Cache: record %s has %v", resourceID, err)
		return ""
	}
	return src
}
