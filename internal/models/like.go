package models

import "time"

// Like is a hard-deleted (article, user) pair.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ArticleID string    `json:"article_id" gorm:"uniqueIndex:idx_like_article_user;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_like_article_user;not null"`
	CreatedAt time.Time `json:"created_at"`
}
