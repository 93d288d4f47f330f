package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tallytalk/internal/handlers"
	"tallytalk/internal/logger"
	"tallytalk/internal/middleware"
	"tallytalk/internal/models"
	"tallytalk/internal/review"
	"tallytalk/internal/services"
	"tallytalk/internal/validator"
	"tallytalk/internal/voice"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single
// test, with the shared default categories already seeded.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Transaction{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	for _, seed := range models.DefaultCategories {
		category := &models.Category{
			Name:      seed.Name,
			Type:      seed.Type,
			Icon:      seed.Icon,
			IsDefault: true,
		}
		if err := db.Create(category).Error; err != nil {
			t.Fatalf("failed to seed default category %q: %v", seed.Name, err)
		}
	}

	return db
}

// speechStub serves canned transcription and extraction responses in the shape
// the speech API returns them.
func speechStub(t *testing.T, transcript, extraction string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/audio/transcriptions":
			_ = json.NewEncoder(w).Encode(map[string]string{"text": transcript})
		case "/chat/completions":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": extraction}},
				},
			})
		default:
			t.Errorf("unexpected speech API path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite and the given speech endpoint.
func setupApp(t *testing.T, speechURL string) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	speechClient := voice.NewClient(speechURL, "test-key", nil)
	orchestrator := voice.NewOrchestrator(speechClient, speechClient)
	sessionStore := review.NewStore(review.DefaultTTL)
	recorderSignal := review.NewRecorderSignal()

	// Services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, categoryService)
	voiceService := services.NewVoiceService(orchestrator, userService, categoryService, sessionStore)
	reviewService := services.NewReviewService(sessionStore, categoryService, transactionService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	voiceHandler := handlers.NewVoiceHandler(voiceService, recorderSignal)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PATCH("/profile/preferences", authHandler.UpdatePreferences)

	voiceRoutes := protected.Group("/voice")
	voiceRoutes.POST("/parse", voiceHandler.ParseVoice)
	voiceRoutes.POST("/recorder-signal", voiceHandler.RaiseRecorderSignal)
	voiceRoutes.GET("/recorder-signal", voiceHandler.ConsumeRecorderSignal)

	reviewRoutes := protected.Group("/review/sessions")
	reviewRoutes.GET("/:id", reviewHandler.GetSession)
	reviewRoutes.DELETE("/:id", reviewHandler.Cancel)
	reviewRoutes.PATCH("/:id/items/:index", reviewHandler.UpdateItem)
	reviewRoutes.DELETE("/:id/items/:index", reviewHandler.RemoveItem)
	reviewRoutes.POST("/:id/reconcile", reviewHandler.Reconcile)
	reviewRoutes.POST("/:id/confirm", reviewHandler.Confirm)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetMonthlySummary)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh
// token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
