package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jkamau717/farm_connect/cache"
	"github.com/jkamau717/farm_connect/chat"
	config "github.com/jkamau717/farm_connect/configs"
	"github.com/jkamau717/farm_connect/database"
	"github.com/jkamau717/farm_connect/handlers"
	"github.com/jkamau717/farm_connect/jobs"
	"github.com/jkamau717/farm_connect/roster"
	"github.com/jkamau717/farm_connect/routes"
	"github.com/jkamau717/farm_connect/storage"
	"github.com/jkamau717/farm_connect/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedFarmer()

	var readCache *cache.Cache
	if redisURL := config.Config("REDIS_URL"); redisURL != "" {
		var err error
		readCache, err = cache.New(redisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, running without read cache: %v", err)
			readCache = nil
		}
	} else {
		log.Println("REDIS_URL not set, running without read cache")
	}

	hub := websocket.NewHub()
	go hub.Run()

	store := chat.NewStore(
		storage.NewGormStore(database.DB),
		roster.NewGormRoster(database.DB),
		roster.NewGormDirectory(database.DB),
	)
	chatHandler := handlers.NewChatHandler(store, readCache, hub)
	opportunityHandler := handlers.NewOpportunityHandler(readCache)

	c := cron.New()
	c.AddFunc("*/10 * * * *", jobs.CloseExpiredOpportunities)
	go c.Start()
	log.Println("✅ Cron job for opportunity expiry scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Farm Connect",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Nairobi",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Farm Connect API",
		})
	})

	routes.AuthRoutes(app)
	routes.ProfileRoutes(app)
	routes.OpportunityRoutes(app, opportunityHandler)
	routes.ChatRoutes(app, chatHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
