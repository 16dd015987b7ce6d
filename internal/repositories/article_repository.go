package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticleByID(ctx context.Context, id string) (*models.Article, error)
	ListArticles(ctx context.Context, filter models.ArticleFilter, skip, limit int64) ([]models.Article, int64, error)
	PublishArticle(ctx context.Context, id string) (*models.Article, error)
	DeleteArticle(ctx context.Context, id string) error
	GetTitles(ctx context.Context, ids []string) (map[string]string, error)
	IncrementViews(ctx context.Context, id string) error
	AdjustLikesCount(ctx context.Context, id string, delta int) error
	AdjustCommentsCount(ctx context.Context, id string, delta int) error
}

// MongoArticleRepository implements ArticleRepository for MongoDB
type MongoArticleRepository struct {
	collection *mongo.Collection
}

// NewMongoArticleRepository creates a new MongoArticleRepository
func NewMongoArticleRepository(db *mongo.Database) *MongoArticleRepository {
	return &MongoArticleRepository{collection: db.Collection("articles")}
}

func parseArticleID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid article id %q", apperrors.ErrInvalidInput, id)
	}
	return objID, nil
}

func (r *MongoArticleRepository) CreateArticle(ctx context.Context, article *models.Article) error {
	now := time.Now().UTC()
	article.ID = primitive.NewObjectID()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Published && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	_, err := r.collection.InsertOne(ctx, article)
	return translate(err, "insert article", "article")
}

func (r *MongoArticleRepository) GetArticleByID(ctx context.Context, id string) (*models.Article, error) {
	objID, err := parseArticleID(id)
	if err != nil {
		return nil, err
	}

	var article models.Article
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&article); err != nil {
		return nil, translate(err, "find article", "article")
	}
	return &article, nil
}

// ListArticles returns a page of articles newest first plus the total match count.
func (r *MongoArticleRepository) ListArticles(ctx context.Context, filter models.ArticleFilter, skip, limit int64) ([]models.Article, int64, error) {
	query := bson.M{}
	if filter.PublishedOnly {
		query["published"] = true
	}
	if filter.CategoryID != 0 {
		query["category_id"] = filter.CategoryID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translate(err, "count articles", "article")
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, translate(err, "find articles", "article")
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, 0, translate(err, "decode articles", "article")
	}
	return articles, total, nil
}

// PublishArticle flips a draft to published and returns the updated document.
// Publishing an already published article returns Conflict.
func (r *MongoArticleRepository) PublishArticle(ctx context.Context, id string) (*models.Article, error) {
	objID, err := parseArticleID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"published": true, "published_at": now, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var article models.Article
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID, "published": false}, update, opts).Decode(&article)
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.GetArticleByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.Conflict("published article")
	}
	if err != nil {
		return nil, translate(err, "publish article", "article")
	}
	return &article, nil
}

func (r *MongoArticleRepository) DeleteArticle(ctx context.Context, id string) error {
	objID, err := parseArticleID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return translate(err, "delete article", "article")
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("article")
	}
	return nil
}

// GetTitles resolves article titles in one query. Unknown or malformed ids
// are absent from the result.
func (r *MongoArticleRepository) GetTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return titles, nil
	}

	opts := options.Find().SetProjection(bson.M{"title": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, opts)
	if err != nil {
		return nil, translate(err, "find titles", "article")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID    primitive.ObjectID `bson:"_id"`
			Title string             `bson:"title"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err, "decode title", "article")
		}
		titles[doc.ID.Hex()] = doc.Title
	}
	return titles, translate(cursor.Err(), "iterate titles", "article")
}

func (r *MongoArticleRepository) IncrementViews(ctx context.Context, id string) error {
	return r.inc(ctx, id, "views", 1)
}

func (r *MongoArticleRepository) AdjustLikesCount(ctx context.Context, id string, delta int) error {
	return r.inc(ctx, id, "likes_count", delta)
}

func (r *MongoArticleRepository) AdjustCommentsCount(ctx context.Context, id string, delta int) error {
	return r.inc(ctx, id, "comments_count", delta)
}

func (r *MongoArticleRepository) inc(ctx context.Context, id, field string, delta int) error {
	objID, err := parseArticleID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return translate(err, "update "+field, "article")
}
