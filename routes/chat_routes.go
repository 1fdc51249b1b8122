package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jkamau717/farm_connect/handlers"
	"github.com/jkamau717/farm_connect/middleware"
)

func ChatRoutes(app *fiber.App, h *handlers.ChatHandler) {
	api := app.Group("/api/v1")

	threads := api.Group("/threads", middleware.Protected())
	threads.Get("", h.ListThreads)
	threads.Post("/dm", middleware.FarmerRequired(), h.CreateDMThread)
	threads.Post("/group", middleware.FarmerRequired(), h.CreateGroupThread)
	threads.Get("/:threadId", h.GetThreadDetail)
	threads.Post("/:threadId/messages", h.PostMessage)
	threads.Post("/:threadId/read", middleware.FarmerRequired(), h.MarkThreadRead)

	api.Post("/opportunities/:opportunityId/broadcast",
		middleware.Protected(), middleware.FarmerRequired(), h.BroadcastToOpportunity)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(h.ServeWs))
}
