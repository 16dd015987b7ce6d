package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type PostgresCategoryRepository struct {
	db *gorm.DB
}

func NewPostgresCategoryRepository(db *gorm.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

// CreateCategory returns Conflict when the name or slug is taken.
func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("name = ? OR slug = ?", category.Name, category.Slug).
		Count(&count).Error
	if err != nil {
		return translate(err, "check category", "category")
	}
	if count > 0 {
		return apperrors.Conflict("category")
	}
	return translate(r.db.WithContext(ctx).Create(category).Error, "create category", "category")
}

func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err, "get category", "category")
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, translate(err, "list categories", "category")
	}
	return categories, nil
}

func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete category", "category")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("category")
	}
	return nil
}
