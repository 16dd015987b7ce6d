package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, articleID string, userID uint) error
	GetLikesCountByArticleID(ctx context.Context, articleID string) (int64, error)
	HasUserLikedArticle(ctx context.Context, articleID string, userID uint) (bool, error)
	DistinctLikerIDs(ctx context.Context, articleID string) ([]uint, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike returns Conflict when the user already likes the article.
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	liked, err := r.HasUserLikedArticle(ctx, like.ArticleID, like.UserID)
	if err != nil {
		return err
	}
	if liked {
		return apperrors.Conflict("like")
	}
	return translate(r.db.WithContext(ctx).Create(like).Error, "create like", "like")
}

// DeleteLike returns NotFound when there was nothing to remove.
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, articleID string, userID uint) error {
	res := r.db.WithContext(ctx).Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return translate(res.Error, "delete like", "like")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("like")
	}
	return nil
}

func (r *PostgresLikeRepository) GetLikesCountByArticleID(ctx context.Context, articleID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
		return 0, translate(err, "count likes", "like")
	}
	return count, nil
}

func (r *PostgresLikeRepository) HasUserLikedArticle(ctx context.Context, articleID string, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check like", "like")
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) DistinctLikerIDs(ctx context.Context, articleID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("article_id = ?", articleID).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err, "list likers", "like")
	}
	return ids, nil
}
