package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsByArticleID(ctx context.Context, articleID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	DistinctCommenterIDs(ctx context.Context, articleID string) ([]uint, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Create(comment).Error, "create comment", "comment")
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err, "get comment", "comment")
	}
	return &comment, nil
}

// GetCommentsByArticleID returns an article's comments oldest first.
func (r *PostgresCommentRepository) GetCommentsByArticleID(ctx context.Context, articleID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err, "list comments", "comment")
	}
	return comments, nil
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete comment", "comment")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("comment")
	}
	return nil
}

// DistinctCommenterIDs returns every user that has a live comment on articleID.
func (r *PostgresCommentRepository) DistinctCommenterIDs(ctx context.Context, articleID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("article_id = ?", articleID).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err, "list commenters", "comment")
	}
	return ids, nil
}
