package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository stores authorization roles.
type ProfileRepository interface {
	GetRole(ctx context.Context, userID uint) (string, error)
	SetRole(ctx context.Context, userID uint, role string) error
}

type PostgresProfileRepository struct {
	db *gorm.DB
}

func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetRole returns NotFound when the user has no profile row.
func (r *PostgresProfileRepository) GetRole(ctx context.Context, userID uint) (string, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return "", translate(err, "get role", "profile")
	}
	return profile.Role, nil
}

// SetRole upserts the role for userID.
func (r *PostgresProfileRepository) SetRole(ctx context.Context, userID uint, role string) error {
	profile := models.Profile{UserID: userID, Role: role}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&profile).Error
	return translate(err, "set role", "profile")
}
