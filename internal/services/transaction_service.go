package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
	"tallytalk/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		categoryService: categoryService,
	}
}

// CreateTransaction creates a single transaction for a user.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID *string,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
	voiceTranscript *string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if date.IsZero() {
		// Midnight of the current local day, never UTC, so entries made late
		// in the evening stay on the day the user spoke them.
		date = localDay(time.Now())
	}

	if categoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Type:            transactionType,
		Amount:          amount,
		Description:     description,
		Date:            date,
		VoiceTranscript: voiceTranscript,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// InsertBatch writes all transactions in one database transaction. A failure
// on any row rolls back every row. Category ownership is verified inside the
// same transaction so a concurrent delete cannot leave a dangling reference.
func (s *transactionService) InsertBatch(userID string, transactions []models.Transaction) ([]models.Transaction, error) {
	if len(transactions) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	for i := range transactions {
		if transactions[i].Amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		transactions[i].UserID = userID
		if transactions[i].Date.IsZero() {
			transactions[i].Date = localDay(time.Now())
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range transactions {
			if id := transactions[i].CategoryID; id != nil {
				var count int64
				if err := tx.Model(&models.Category{}).
					Where("id = ? AND (user_id = ? OR user_id IS NULL)", *id, userID).
					Count(&count).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if count == 0 {
					return apperrors.ErrCategoryNotFound
				}
			}
			if err := tx.Create(&transactions[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update to a transaction owned by the
// user. A type change drops the existing category link unless the update also
// picks a new category, since categories are scoped to one transaction type.
func (s *transactionService) UpdateTransaction(userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Amount != nil {
		if *upd.Amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Type != nil && *upd.Type != transaction.Type {
		updates["type"] = *upd.Type
		if upd.CategoryID == nil {
			upd.ClearCategory = true
		}
	}
	switch {
	case upd.CategoryID != nil:
		if _, err := s.categoryService.GetCategoryByID(userID, *upd.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *upd.CategoryID
	case upd.ClearCategory:
		updates["category_id"] = nil
	}
	if upd.Date != nil {
		updates["date"] = localDay(*upd.Date)
	}

	if len(updates) == 0 {
		return transaction, nil
	}

	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction removes a transaction owned by the user.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	result := s.db.Where("id = ? AND user_id = ?", transactionID, userID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// GetMonthlySummary aggregates one calendar month of transactions, with a
// per-category expense breakdown. Month boundaries use local time.
func (s *transactionService) GetMonthlySummary(userID string, year int, month time.Month) (*MonthlySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	type typeTotal struct {
		Type  models.TransactionType
		Total int64
	}
	var totals []typeTotal
	if err := s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Group("type").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &MonthlySummary{
		Year:       year,
		Month:      int(month),
		ByCategory: []CategoryBreakdown{},
	}
	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = t.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = t.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	type catRow struct {
		CategoryID   *string
		CategoryName string
		Total        int64
		Count        int
	}
	var rows []catRow
	if err := s.db.Model(&models.Transaction{}).
		Select("transactions.category_id, COALESCE(categories.name, 'Uncategorized') AS category_name, COALESCE(SUM(transactions.amount), 0) AS total, COUNT(*) AS count").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.date >= ? AND transactions.date < ?",
			userID, models.TransactionTypeExpense, start, end).
		Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, r := range rows {
		summary.ByCategory = append(summary.ByCategory, CategoryBreakdown{
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			Total:        r.Total,
			Count:        r.Count,
		})
	}

	return summary, nil
}

// localDay returns midnight of t's day in local time.
func localDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
