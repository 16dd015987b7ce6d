package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article is a blog post stored in MongoDB.
type Article struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	CategoryID    uint               `json:"category_id,omitempty" bson:"category_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Excerpt       string             `json:"excerpt" bson:"excerpt"`
	Content       string             `json:"content" bson:"content"`
	CoverImage    string             `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	Published     bool               `json:"published" bson:"published"`
	Views         int64              `json:"views" bson:"views"`
	LikesCount    int64              `json:"likes_count" bson:"likes_count"`
	CommentsCount int64              `json:"comments_count" bson:"comments_count"`
	PublishedAt   *time.Time         `json:"published_at,omitempty" bson:"published_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// ArticleFilter narrows article listings.
type ArticleFilter struct {
	CategoryID    uint
	PublishedOnly bool
}

type CreateArticleRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	Excerpt    string `json:"excerpt" validate:"omitempty,max=500"`
	Content    string `json:"content" validate:"required"`
	CoverImage string `json:"cover_image" validate:"omitempty,url"`
	CategoryID uint   `json:"category_id"`
	Published  bool   `json:"published"`
}
