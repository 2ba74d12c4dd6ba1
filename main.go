package main

import (
	"context"
	"log"
	"time"

	"biblereader/booknames"
	"biblereader/config"
	"biblereader/database"
	"biblereader/handlers"
	"biblereader/handlers/admin"
	"biblereader/middleware"
	"biblereader/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("FATAL: ", err)
	}

	// Initialize database
	database.InitDB(cfg)
	defer database.CloseDB()
	db := database.GetDB()

	catalog := booknames.Default()
	store := services.NewVerseStore(db)
	remote := services.NewContentClient(cfg.ContentAPIURL, cfg.ContentTimeout)
	cached := services.NewCachedSource(store, remote, cfg.ChapterCacheTTL)
	cached.FetchTimeout = cfg.ContentTimeout
	reader := services.NewReaderService(catalog, cached)
	shares := services.NewShareService(db, catalog, cfg.PublicBaseURL, cfg.ShareLinkTTL)
	admins := services.NewAdminService(db)
	loader := services.NewVerseLoader(store, catalog)

	if err := admins.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("Failed to seed admin user: ", err)
	}

	// Load verses from files
	log.Println("Loading verses from files...")
	if result, err := loader.LoadDirectory(context.Background(), cfg.VersesDir); err != nil {
		log.Printf("⚠️  Verse import stopped: %v", err)
	} else if result.Files > 0 {
		log.Printf("📖 Imported %d verses from %d files", result.Verses, result.Files)
	}

	// Initialize cleanup service
	services.InitCleanupService(store, shares, cfg.ChapterCacheTTL, cleanupInterval).Start()
	defer func() {
		if cleanupService := services.GetCleanupService(); cleanupService != nil {
			cleanupService.Stop()
		}
	}()

	handlers.InitReaderHandlers(reader)
	handlers.InitShareHandlers(shares)
	admin.InitAdminHandlers(admin.Deps{
		Admins:    admins,
		Store:     store,
		Loader:    loader,
		Shares:    shares,
		JWTSecret: cfg.JWTSecret,
		VersesDir: cfg.VersesDir,
	})

	app := newApp(cfg)

	log.Printf("🚀 HTTP server starting on port %s", cfg.Port)
	log.Printf("📊 Environment: %s", cfg.AppEnv)
	log.Printf("🗄️  Database driver: %s", cfg.DBDriver)
	log.Printf("📡 Content service: %s", cfg.ContentAPIURL)
	log.Printf("🌐 Selection sessions at ws://localhost:%s/ws/selection", cfg.Port)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Println("Failed to start HTTP server:", err)
	}
}

// newApp builds the Fiber app with middleware and routes. Handlers must be
// initialized first.
func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg),
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(middleware.FiberRateLimitMiddleware())

	// API Routes
	api := app.Group("/api")
	api.Get("/books", handlers.GetBooks)
	api.Get("/suggest", handlers.Suggest)
	api.Get("/reference", handlers.GetReference)
	api.Get("/verses", handlers.GetVerses)
	api.Get("/chapter", handlers.GetChapter)
	api.Get("/compare", handlers.GetComparison)
	api.Post("/copy", middleware.WriteRateLimitMiddleware(), handlers.ComposeCopyText)

	// Share routes
	api.Post("/share", middleware.WriteRateLimitMiddleware(), handlers.CreateShare)
	api.Get("/share/:id", handlers.GetShare)
	app.Get("/s/:id", handlers.FollowShare)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", middleware.FiberAuthRateLimitMiddleware(), admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	// Protected admin routes
	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuth(cfg.JWTSecret))
	adminProtected.Get("/verify", admin.VerifyToken)
	adminProtected.Get("/stats", admin.GetStats)
	adminProtected.Post("/import", admin.ImportVerses)
	adminProtected.Delete("/cache", admin.DropCache)
	adminProtected.Post("/cleanup/manual", admin.ManualCleanup)
	adminProtected.Get("/cleanup/stats", admin.GetCleanupStats)

	// Live selection session
	app.Use("/ws", handlers.SelectionUpgrade)
	app.Get("/ws/selection", handlers.SelectionSocket())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	return app
}

func customErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		// Don't expose internal errors in production
		if cfg.IsProduction() && code == 500 {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
