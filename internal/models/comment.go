package models

import "gorm.io/gorm"

// Comment represents a comment on an article
type Comment struct {
	gorm.Model
	ArticleID string `json:"article_id" gorm:"index;not null"` // MongoDB ObjectID hex
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Content   string `json:"content" gorm:"size:1000;not null"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// CommentWithAuthor is the listing shape for an article's comments.
type CommentWithAuthor struct {
	Comment
	Author *UserCompact `json:"author,omitempty"`
}
