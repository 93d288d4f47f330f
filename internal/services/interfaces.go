package services

import (
	"context"
	"time"

	"tallytalk/internal/models"
	"tallytalk/internal/pagination"
	"tallytalk/internal/review"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdatePreferences(userID string, currency *string, voiceLanguage *models.VoiceLanguage) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
// Listing always includes the shared defaults alongside the user's own
// categories, defaults first, then alphabetical.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon string) (*models.Category, error)
	ListCategories(userID string, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, icon string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionUpdate holds the mutable fields of a persisted transaction. Nil
// pointers leave the field unchanged; ClearCategory removes the category link.
type TransactionUpdate struct {
	Amount        *int64
	Description   *string
	CategoryID    *string
	ClearCategory bool
	Type          *models.TransactionType
	Date          *time.Time
}

// CategoryBreakdown is one category's share of a monthly summary.
type CategoryBreakdown struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        int64   `json:"total"`
	Count        int     `json:"count"`
}

// MonthlySummary aggregates one calendar month of transactions.
type MonthlySummary struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	TotalIncome  int64               `json:"total_income"`
	TotalExpense int64               `json:"total_expense"`
	Net          int64               `json:"net"`
	ByCategory   []CategoryBreakdown `json:"by_category"`
}

// TransactionServicer defines the contract for transaction-related business logic.
// InsertBatch writes all rows in a single database transaction: either every
// row lands or none do.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, transactionType models.TransactionType, amount int64, description string, date time.Time, voiceTranscript *string) (*models.Transaction, error)
	InsertBatch(userID string, transactions []models.Transaction) ([]models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetMonthlySummary(userID string, year int, month time.Month) (*MonthlySummary, error)
}

// VoiceServicer defines the contract for turning a recording into a review
// session. One parse per user at a time; a second call while the first is in
// flight is rejected rather than queued.
type VoiceServicer interface {
	ParseRecording(ctx context.Context, userID, audioBase64, language string) (review.Session, error)
}

// ReviewServicer defines the contract for review session operations. Confirm
// persists the session's items as one atomic batch; Cancel discards the
// session without touching persistence.
type ReviewServicer interface {
	GetSession(userID, sessionID string) (review.Session, error)
	UpdateItem(userID, sessionID string, index int, upd review.ItemUpdate) (review.Session, error)
	RemoveItem(userID, sessionID string, index int) (review.Session, error)
	ReconcileSession(userID, sessionID string) (review.Session, error)
	Confirm(userID, sessionID string) ([]models.Transaction, error)
	Cancel(userID, sessionID string)
}
