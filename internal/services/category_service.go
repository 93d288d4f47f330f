package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new user-owned category.
func (s *categoryService) CreateCategory(userID, name string, categoryType models.CategoryType, icon string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	// Check against both the user's categories and the shared defaults so a
	// duplicate name cannot shadow a default during reconciliation.
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("(user_id = ? OR user_id IS NULL) AND LOWER(name) = LOWER(?) AND type = ?", userID, name, categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	category := &models.Category{
		UserID: &userID,
		Name:   name,
		Type:   categoryType,
		Icon:   icon,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// ListCategories returns the shared defaults plus the user's own categories,
// optionally filtered by type. Defaults sort first, then names ascending;
// reconciliation relies on this order because the first match wins.
func (s *categoryService) ListCategories(userID string, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.Model(&models.Category{}).
		Where("user_id = ? OR user_id IS NULL", userID)
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := q.Order("is_default DESC, name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category the user can see: their own or a default.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, userID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a user-owned category. Defaults are read-only.
func (s *categoryService) UpdateCategory(userID, categoryID, name, icon string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault || category.UserID == nil {
		return nil, apperrors.ErrCategoryReadOnly
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory removes a user-owned category. Defaults are read-only, and
// a category still referenced by transactions cannot be deleted.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}
	if category.IsDefault || category.UserID == nil {
		return apperrors.ErrCategoryReadOnly
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
