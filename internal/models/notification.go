package models

import "time"

type NotificationType string

const (
	NotificationNewArticle              NotificationType = "new_article"
	NotificationLikeOnYourArticle       NotificationType = "like_on_your_article"
	NotificationLikeOnArticleYouLiked   NotificationType = "like_on_article_you_liked"
	NotificationCommentOnYourArticle    NotificationType = "comment_on_your_article"
	NotificationCommentOnArticleYouComm NotificationType = "comment_on_article_you_commented"
)

// IsComment reports whether rows of this type carry a comment payload.
func (t NotificationType) IsComment() bool {
	return t == NotificationCommentOnYourArticle || t == NotificationCommentOnArticleYouComm
}

// Actor is the user whose action produced a notification.
type Actor struct {
	ID     uint   `json:"id" gorm:"column:id;index"`
	Name   string `json:"name" gorm:"column:name"`
	Avatar string `json:"avatar" gorm:"column:avatar"`
}

// NotificationPayload holds type-specific data. Only comment types set
// CommentText.
type NotificationPayload struct {
	CommentText string `json:"comment_text,omitempty" gorm:"column:comment_text;size:1000"`
}

// Notification is one row per (event, recipient).
type Notification struct {
	ID           uint                `json:"id" gorm:"primaryKey"`
	UserID       uint                `json:"user_id" gorm:"index:idx_notifications_user_created,priority:1;not null"`
	Type         NotificationType    `json:"type" gorm:"size:40;not null"`
	ArticleID    string              `json:"article_id" gorm:"size:24;index"`
	ArticleTitle string              `json:"article_title,omitempty" gorm:"-"`
	Actor        Actor               `json:"actor" gorm:"embedded;embeddedPrefix:actor_"`
	Payload      NotificationPayload `json:"payload" gorm:"embedded;embeddedPrefix:payload_"`
	Message      string              `json:"message" gorm:"not null"`
	IsRead       bool                `json:"is_read" gorm:"default:false;index"`
	CreatedAt    time.Time           `json:"created_at" gorm:"index:idx_notifications_user_created,priority:2,sort:desc"`
}
