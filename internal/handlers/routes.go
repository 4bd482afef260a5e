package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Register mounts the lookup, listing and WebSocket routes
func Register(app *fiber.App, svc VideoService) {
	lookupHandler := NewLookupHandler(svc)
	videosHandler := NewVideosHandler(svc)
	streamHandler := NewStreamHandler(svc)

	app.Get("/lookup", lookupHandler.Lookup)
	app.Get("/youtube", lookupHandler.YouTube)
	app.Get("/tiktok", lookupHandler.TikTok)

	app.Get("/videos", videosHandler.List)
	app.Get("/videos/:id", videosHandler.Get)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/lookup", websocket.New(streamHandler.Handle))
}
