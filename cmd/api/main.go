package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/rallycoach/internal/config"
	"alfredoptarigan/rallycoach/internal/handlers"
	"alfredoptarigan/rallycoach/internal/repositories"
	"alfredoptarigan/rallycoach/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Run history is optional
	var runRepo repositories.RunRepository
	if cfg.History.Enabled {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		runRepo = repositories.NewRunRepository(db)
		log.Println("✅ Run history enabled")
	}

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	// Initialize the AI provider
	completion, err := newCompletionService(cfg)
	if err != nil {
		log.Printf("⚠️  AI provider unavailable: %v", err)
	} else {
		log.Printf("✅ AI provider %s initialized successfully", completion.Name())
	}

	var aiAcquirer services.ReportAcquirer
	if completion != nil {
		aiAcquirer = services.NewAIAcquirer(completion, cfg.Analysis.InlineVideoMaxBytes)
	}

	// Select the session strategy
	var sessionAcquirer services.ReportAcquirer
	switch cfg.Analysis.Strategy {
	case config.StrategyBackend:
		sessionAcquirer = services.NewBackendAcquirer(cfg.Backend.URL, nil)
	default:
		if aiAcquirer == nil {
			log.Fatalf("❌ ANALYSIS_STRATEGY=%s requires a configured AI provider", cfg.Analysis.Strategy)
		}
		sessionAcquirer = aiAcquirer
	}
	log.Printf("✅ Session strategy: %s", sessionAcquirer.Name())

	session := services.NewSession(sessionAcquirer, runRepo, services.SessionOptions{
		InitialProgress:  cfg.Progress.Initial,
		ProgressCeiling:  cfg.Progress.Ceiling,
		ProgressInterval: cfg.Progress.Interval,
		Timeout:          cfg.Analysis.Timeout,
	})

	// Initialize Handlers
	uploader := handlers.NewVideoUploader(storageService, cfg.Storage.MaxFileSize)
	sessionHandler := handlers.NewSessionHandler(uploader, session)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "RallyCoach API",
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: cfg.Analysis.Timeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 100<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	endpoints := []string{
		"GET /api/v1/session",
		"GET /api/v1/session/wait",
		"POST /api/v1/session/upload",
		"POST /api/v1/session/reset",
	}

	api.Get("/session", sessionHandler.HandleGet)
	api.Get("/session/wait", sessionHandler.HandleWait)
	api.Post("/session/upload", sessionHandler.HandleUpload)
	api.Post("/session/reset", sessionHandler.HandleReset)

	// The backend endpoint always answers with the AI strategy, so a
	// session configured for the backend strategy can point at this server.
	if aiAcquirer != nil {
		analyzeHandler := handlers.NewAnalyzeHandler(uploader, aiAcquirer, cfg.Analysis.Timeout)
		app.Post(services.AnalyzePath, analyzeHandler.HandleAnalyze)
		api.Post(services.AnalyzePath, analyzeHandler.HandleAnalyze)
		endpoints = append(endpoints, "POST /analyze", "POST /api/v1/analyze")
	}

	if runRepo != nil {
		runHandler := handlers.NewRunHandler(runRepo)
		api.Get("/runs", runHandler.HandleListRuns)
		api.Get("/runs/:id", runHandler.HandleGetRun)
		endpoints = append(endpoints, "GET /api/v1/runs", "GET /api/v1/runs/:id")
	}

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "RallyCoach API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		session.Reset()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newCompletionService(cfg *config.Config) (services.CompletionService, error) {
	switch cfg.Analysis.Provider {
	case config.ProviderOpenAI:
		return services.NewOpenAIService(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	default:
		return services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
