package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/shorts-vault/internal/service"
	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// VideoService is the orchestrator surface the handlers need
type VideoService interface {
	LookupWithProgress(ctx context.Context, rawURL string, src types.Source, progress service.ProgressFunc) (*types.LookupResponse, error)
	List(ctx context.Context) ([]storage.Record, error)
	Get(ctx context.Context, resourceID string) (*storage.Record, error)
}

// LookupHandler serves single-video lookups
type LookupHandler struct {
	svc VideoService
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(svc VideoService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// Lookup handles GET /lookup?url= for any supported platform
func (h *LookupHandler) Lookup(c *fiber.Ctx) error {
	return h.lookup(c, "url", "")
}

// YouTube handles GET /youtube?video_url=
func (h *LookupHandler) YouTube(c *fiber.Ctx) error {
	return h.lookup(c, "video_url", types.SourceYouTube)
}

// TikTok handles GET /tiktok?tiktok_url=
func (h *LookupHandler) TikTok(c *fiber.Ctx) error {
	return h.lookup(c, "tiktok_url", types.SourceTikTok)
}

func (h *LookupHandler) lookup(c *fiber.Ctx, param string, src types.Source) error {
	rawURL := strings.TrimSpace(c.Query(param))
	if rawURL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": param + " is required",
			"code":  "ERR_NO_URL",
		})
	}

	resp, err := h.svc.LookupWithProgress(c.UserContext(), rawURL, src, nil)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// errorResponse maps pipeline errors onto HTTP status codes
func errorResponse(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	if status >= 500 {
		log.Printf("Request %s failed: %v", c.OriginalURL(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrInvalidURL):
		return 400, "ERR_INVALID_URL"
	case errors.Is(err, types.ErrVideoNotFound), errors.Is(err, types.ErrRecordNotFound):
		return 404, "ERR_NOT_FOUND"
	case errors.Is(err, types.ErrUpstreamFetch):
		return 502, "ERR_UPSTREAM"
	}
	return 500, "ERR_INTERNAL"
}
