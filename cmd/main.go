package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	blog_repositories "elasticsearch-demo-backend/blogs/repositories"
	blog_routes "elasticsearch-demo-backend/blogs/routes"
	"elasticsearch-demo-backend/cache"
	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/internal/bootstrap"
	item_repositories "elasticsearch-demo-backend/items/repositories"
	item_routes "elasticsearch-demo-backend/items/routes"
	item_services "elasticsearch-demo-backend/items/services"
	"elasticsearch-demo-backend/middleware"
	"elasticsearch-demo-backend/tasks"
	"elasticsearch-demo-backend/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables before the logger reads LOG_LEVEL
	envErr := config.LoadEnv()

	config.InitLogger()
	defer config.Logger.Sync()

	if envErr != nil {
		config.Logger.Fatal("Error loading .env file", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := config.GetEnvDefault("PORT", "8080")

	// Search engine
	engine, closeEngine, err := bootstrap.NewSearchEngine(ctx, config.Logger)
	if err != nil {
		config.Logger.Fatal("Cannot create search engine", zap.Error(err))
	}
	defer func() {
		if err := closeEngine(); err != nil {
			config.Logger.Error("Failed to close search engine", zap.Error(err))
		}
	}()

	// Repositories
	itemRepo := item_repositories.NewItemRepository(engine, config.Logger)
	blogRepo := blog_repositories.NewBlogRepository(engine, config.Logger)

	if err := bootstrap.IndexSearchData(ctx, itemRepo, blogRepo, config.GetEnv("SEED_DATA") == "true"); err != nil {
		config.Logger.Fatal("Failed to prepare indices", zap.Error(err))
	}

	// Redis backs the aggregation cache and the asynq queue. Both are
	// optional; without Redis the cache is a no-op and async bulk is off.
	var aggCache cache.Cache = cache.Noop{}
	var enqueuer tasks.Enqueuer
	var worker *asynq.Server

	if config.GetEnv("REDIS_ADDRESS") != "" {
		redisClient, err := config.InitRedisServer(ctx)
		if err != nil {
			config.Logger.Warn("Redis unavailable, running without cache and background jobs", zap.Error(err))
		} else {
			defer redisClient.Close()
			aggCache = cache.NewRedisCache(redisClient, config.Logger)

			asynqClient := asynq.NewClient(config.AsynqRedisOpt())
			defer asynqClient.Close()
			enqueuer = asynqClient

			worker = tasks.NewWorker(config.AsynqRedisOpt(), config.GetEnvInt("WORKER_CONCURRENCY", 4))
		}
	} else {
		config.Logger.Warn("REDIS_ADDRESS not set, running without cache and background jobs")
	}

	// Index change events for websocket subscribers
	eventHub := websocket.NewHub(config.Logger)
	go eventHub.Run(ctx)

	// Services
	brandService := item_services.NewBrandStatisticsService(itemRepo, aggCache,
		config.GetEnvDuration("AGGREGATION_CACHE_TTL", 10*time.Minute), config.Logger)
	itemService := item_services.NewItemService(itemRepo, brandService, enqueuer, eventHub, config.Logger)

	if worker != nil {
		if err := worker.Start(tasks.NewServeMux(itemService.BulkIndexHandler())); err != nil {
			config.Logger.Fatal("Cannot start background worker", zap.Error(err))
		}
	}

	if schedule := config.GetEnv("CACHE_WARM_SCHEDULE"); schedule != "" {
		scheduler, err := brandService.StartWarmup(schedule)
		if err != nil {
			config.Logger.Fatal("Cannot schedule cache warm-up", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	// categories and master names arrive percent-encoded in the path
	app := fiber.New(fiber.Config{UnescapePath: true})

	// Apply CORS middleware from middleware package
	middleware.InitCors(app, config.GetEnvDefault("CORS_ALLOW_ORIGINS", "*"))
	writeLimiter := middleware.WriteRateLimiter(config.GetEnvInt("WRITE_RATE_LIMIT", 50))

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	item_routes.ItemRouterInit(app, itemRepo, itemService, brandService, writeLimiter)
	blog_routes.BlogRouterInit(app, blogRepo, writeLimiter)

	wsHandler := websocket.NewWsHandler(eventHub, config.Logger)
	app.Get("/ws/events", wsHandler.HandleWebSocket)
	config.Logger.Info("WebSocket endpoint registered at /ws/events")

	go func() {
		<-ctx.Done()
		config.Logger.Info("Shutting down")
		if worker != nil {
			worker.Shutdown()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			config.Logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	config.Logger.Info("Server starting", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		config.Logger.Error("Server failed", zap.String("port", port), zap.Error(err))
	}
}
