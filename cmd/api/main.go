package main

import (
	"fmt"
	"net/http"
	"os"

	"tallytalk/internal/config"
	"tallytalk/internal/database"
	"tallytalk/internal/handlers"
	"tallytalk/internal/logger"
	"tallytalk/internal/middleware"
	"tallytalk/internal/review"
	"tallytalk/internal/services"
	"tallytalk/internal/validator"
	"tallytalk/internal/voice"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tallytalk/internal/docs" // Import swagger docs
)

// @title           TallyTalk API
// @version         1.0
// @description     TallyTalk is a voice-first expense tracker: speak a purchase, review the extracted transactions, and confirm them into your ledger.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Speech pipeline
	speechClient := voice.NewClient(appConfig.OpenAIBaseURL, appConfig.OpenAIAPIKey, nil)
	orchestrator := voice.NewOrchestrator(speechClient, speechClient)
	sessionStore := review.NewStore(review.DefaultTTL)
	recorderSignal := review.NewRecorderSignal()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, categoryService)
	voiceService := services.NewVoiceService(orchestrator, userService, categoryService, sessionStore)
	reviewService := services.NewReviewService(sessionStore, categoryService, transactionService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	voiceHandler := handlers.NewVoiceHandler(voiceService, recorderSignal)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PATCH("/profile/preferences", authHandler.UpdatePreferences)

	// Voice routes
	voiceRoutes := protected.Group("/voice")
	voiceRoutes.POST("/parse", voiceHandler.ParseVoice)
	voiceRoutes.POST("/recorder-signal", voiceHandler.RaiseRecorderSignal)
	voiceRoutes.GET("/recorder-signal", voiceHandler.ConsumeRecorderSignal)

	// Review session routes
	reviewRoutes := protected.Group("/review/sessions")
	reviewRoutes.GET("/:id", reviewHandler.GetSession)
	reviewRoutes.DELETE("/:id", reviewHandler.Cancel)
	reviewRoutes.PATCH("/:id/items/:index", reviewHandler.UpdateItem)
	reviewRoutes.DELETE("/:id/items/:index", reviewHandler.RemoveItem)
	reviewRoutes.POST("/:id/reconcile", reviewHandler.Reconcile)
	reviewRoutes.POST("/:id/confirm", reviewHandler.Confirm)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetMonthlySummary)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	log.Infof("Starting TallyTalk backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
