package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"steam-chat/internal/auth"
	"steam-chat/internal/db"
	"steam-chat/internal/handlers"
	"steam-chat/internal/ratelimit"
	"steam-chat/internal/services"
	"steam-chat/internal/steam"
	"steam-chat/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Init DB
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = "postgres://" + utils.GetEnv("POSTGRES_USER", "postgres") + ":" +
			utils.GetEnv("POSTGRES_PASSWORD", "postgres") + "@" +
			utils.GetEnv("POSTGRES_HOST", "localhost") + ":" +
			utils.GetEnv("POSTGRES_PORT", "5432") + "/" +
			utils.GetEnv("POSTGRES_DB", "steamchat") + "?sslmode=disable"
	}

	pool, err := db.InitDB(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Steam upstream + services
	apiKey := utils.GetEnv("STEAM_API_KEY", "")
	if apiKey == "" {
		log.Println("Warning: STEAM_API_KEY not set, upstream calls will fail")
	}
	steamClient := steam.NewClient(apiKey, "")

	userService := services.NewUserService(pool)
	chatService := services.NewChatService(pool)
	friendService := services.NewFriendService(steamClient)

	openID := auth.NewOpenID(
		utils.GetEnv("STEAM_REALM", "http://localhost:3000/"),
		utils.GetEnv("STEAM_RETURN_URL", "http://localhost:3000/auth/steam/return"),
		"",
	)

	// Relay state
	rooms := handlers.NewRoomManager()
	relay := handlers.NewRelay(rooms, chatService)

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Auth Routes
	app.Get("/auth/steam", handlers.SteamLoginHandler(openID))
	app.Get("/auth/steam/return", handlers.SteamCallbackHandler(openID, userService, friendService))
	app.Get("/logout", handlers.LogoutHandler())

	// Protected Steam proxy routes. The optional redis limiter caps calls
	// per user on top of what the caches absorb.
	api := app.Group("/api")
	api.Use(handlers.AuthMiddleware)
	if redisAddr := utils.GetEnv("REDIS_ADDR", ""); redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := ratelimit.NewLimiter(client, "ratelimit:steam:",
			utils.GetEnvInt("RATE_LIMIT", 30),
			time.Duration(utils.GetEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60))*time.Second)
		api.Use(ratelimit.Middleware(limiter))
		log.Println("Steam proxy rate limiting enabled")
	}

	api.Get("/friends", handlers.GetFriendsHandler(friendService))
	api.Get("/friend/:steamid", handlers.GetFriendHandler(friendService))

	app.Get("/steam-profile", handlers.AuthMiddleware, handlers.MeHandler(userService))
	app.Get("/steam-user/:steamid", handlers.AuthMiddleware, handlers.SteamUserHandler(friendService))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. AuthMiddleware checks the token,
	// WSUpgradeMiddleware checks it's a websocket request.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.AuthMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(relay))

	// Start Server
	port := utils.GetEnv("PORT", "3000")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	log.Println("Server shutdown complete")
}
