package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/shorts-vault/internal/service"
	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// StreamMessage is one server-to-client WebSocket frame
type StreamMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id"`
	URL       string                 `json:"url,omitempty"`
	Progress  *service.ProgressEvent `json:"progress,omitempty"`
	Result    *types.LookupResponse  `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Code      string                 `json:"code,omitempty"`
}

// StreamHandler runs lookups over a WebSocket and pushes stage progress
type StreamHandler struct {
	svc VideoService
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(svc VideoService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// Handle processes WebSocket connections. Each text frame is a URL; the
// connection stays open for further lookups until the client sends END
// or disconnects.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID := uuid.New().String()
	log.Printf("WebSocket connection established: %s", sessionID)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("WebSocket %s closed: %v", sessionID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		rawURL := strings.TrimSpace(string(message))
		if rawURL == "END" {
			log.Printf("Received END signal, closing %s", sessionID)
			return
		}
		if rawURL == "" {
			continue
		}

		if err := h.run(ctx, c, sessionID, rawURL); err != nil {
			log.Printf("WebSocket %s write error: %v", sessionID, err)
			return
		}
	}
}

func (h *StreamHandler) run(ctx context.Context, c *websocket.Conn, sessionID, rawURL string) error {
	var writeErr error
	progress := func(ev service.ProgressEvent) {
		if writeErr != nil {
			return
		}
		writeErr = c.WriteJSON(StreamMessage{
			Type:      "progress",
			SessionID: sessionID,
			URL:       rawURL,
			Progress:  &ev,
		})
	}

	resp, err := h.svc.LookupWithProgress(ctx, rawURL, "", progress)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		_, code := classify(err)
		return c.WriteJSON(StreamMessage{
			Type:      "error",
			SessionID: sessionID,
			URL:       rawURL,
			Error:     err.Error(),
			Code:      code,
		})
	}

	return c.WriteJSON(StreamMessage{
		Type:      "result",
		SessionID: sessionID,
		URL:       rawURL,
		Result:    resp,
	})
}
