package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

const notificationBatchSize = 500

// NotificationRepository defines the interface for notification operations.
// Every read and write other than CreateBatch is scoped to the owning user.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, rows []models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uint) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// CreateBatch inserts rows in one transaction; either all rows land or none.
// IDs and timestamps are written back into rows.
func (r *PostgresNotificationRepository) CreateBatch(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, notificationBatchSize).Error
	})
	return translate(err, "insert notifications", "notification")
}

// ListByUser returns at most limit rows, newest first.
func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list notifications", "notification")
	}
	return rows, nil
}

func (r *PostgresNotificationRepository) GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error) {
	var row models.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, translate(err, "get notification", "notification")
	}
	return &row, nil
}

func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count unread", "notification")
	}
	return count, nil
}

// MarkAsRead is a no-op when the row is already read, absent or not owned.
func (r *PostgresNotificationRepository) MarkAsRead(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	return translate(err, "mark read", "notification")
}

func (r *PostgresNotificationRepository) MarkAllAsRead(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	return translate(err, "mark all read", "notification")
}

// Delete hard-deletes the row. Deleting an absent row succeeds.
func (r *PostgresNotificationRepository) Delete(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{}).Error
	return translate(err, "delete notification", "notification")
}

var _ NotificationRepository = (*PostgresNotificationRepository)(nil)
