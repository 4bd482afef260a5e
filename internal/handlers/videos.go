package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// VideosHandler serves cached records without running any stage
type VideosHandler struct {
	svc VideoService
}

// NewVideosHandler creates a new listing handler
func NewVideosHandler(svc VideoService) *VideosHandler {
	return &VideosHandler{svc: svc}
}

// List handles GET /videos
func (h *VideosHandler) List(c *fiber.Ctx) error {
	records, err := h.svc.List(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(records)
}

// Get handles GET /videos/:id
func (h *VideosHandler) Get(c *fiber.Ctx) error {
	rec, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(rec)
}
