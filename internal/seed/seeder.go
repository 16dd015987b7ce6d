// Package seed fills a development database with generated content.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

var defaultCategories = []string{"Go", "Databases", "Distributed Systems", "Career", "Tooling"}

// Options sizes a seeding run.
type Options struct {
	Users              int
	Articles           int
	MaxCommentsPerPost int
	MaxLikesPerPost    int
	// AdminEmail is created (or promoted) as the admin account.
	AdminEmail string
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Categories int
	Articles   int
	Comments   int
	Likes      int
}

// Seeder handles database seeding operations
type Seeder struct {
	users      repositories.UserRepository
	profiles   repositories.ProfileRepository
	categories repositories.CategoryRepository
	articles   repositories.ArticleRepository
	comments   repositories.CommentRepository
	likes      repositories.LikeRepository
	faker      *gofakeit.Faker
	password   string
}

// NewSeeder creates a seeder. A non-zero seed makes runs reproducible.
func NewSeeder(db *gorm.DB, articles repositories.ArticleRepository, seed uint64) (*Seeder, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		users:      repositories.NewPostgresUserRepository(db),
		profiles:   repositories.NewPostgresProfileRepository(db),
		categories: repositories.NewPostgresCategoryRepository(db),
		articles:   articles,
		comments:   repositories.NewPostgresCommentRepository(db),
		likes:      repositories.NewPostgresLikeRepository(db),
		faker:      gofakeit.New(seed),
		password:   string(hashed),
	}, nil
}

// Seed creates accounts, categories, articles and engagement. Notifications
// are not generated.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	admin, err := s.ensureAdmin(ctx, opts.AdminEmail)
	if err != nil {
		return sum, fmt.Errorf("failed to seed admin: %w", err)
	}

	logger.Log.Info("Creating users...", zap.Int("count", opts.Users))
	readers, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return sum, fmt.Errorf("failed to seed users: %w", err)
	}
	sum.Users = len(readers)

	logger.Log.Info("Creating categories...")
	categories, err := s.seedCategories(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to seed categories: %w", err)
	}
	sum.Categories = len(categories)

	logger.Log.Info("Creating articles...", zap.Int("count", opts.Articles))
	for i := 0; i < opts.Articles; i++ {
		article, err := s.seedArticle(ctx, admin.ID, categories)
		if err != nil {
			return sum, fmt.Errorf("failed to seed article: %w", err)
		}
		sum.Articles++
		if !article.Published || len(readers) == 0 {
			continue
		}

		comments, likes, err := s.seedEngagement(ctx, article, readers, opts)
		if err != nil {
			return sum, fmt.Errorf("failed to seed engagement: %w", err)
		}
		sum.Comments += comments
		sum.Likes += likes
	}
	return sum, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		email = "admin@example.com"
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		user = &models.User{Name: "Admin", Email: email, Password: s.password, Bio: "Site owner"}
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	return user, s.profiles.SetRole(ctx, user.ID, models.RoleAdmin)
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Name:      s.faker.Name(),
			Email:     fmt.Sprintf("%s.%d@example.com", strings.ToLower(s.faker.Username()), s.faker.IntRange(1000, 999999)),
			Password:  s.password,
			AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
			Bio:       s.faker.HipsterSentence(),
		}
		if err := s.users.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return nil, err
		}
		if err := s.profiles.SetRole(ctx, user.ID, models.RoleUser); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// seedCategories creates the default categories, reusing any that exist.
func (s *Seeder) seedCategories(ctx context.Context) ([]models.Category, error) {
	existing, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Category, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	categories := make([]models.Category, 0, len(defaultCategories))
	for _, name := range defaultCategories {
		if c, ok := byName[name]; ok {
			categories = append(categories, c)
			continue
		}
		c := models.Category{
			Name:        name,
			Slug:        strings.ReplaceAll(strings.ToLower(name), " ", "-"),
			Description: s.faker.HipsterSentence(),
		}
		if err := s.categories.CreateCategory(ctx, &c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *Seeder) seedArticle(ctx context.Context, authorID uint, categories []models.Category) (*models.Article, error) {
	article := &models.Article{
		AuthorID:   authorID,
		Title:      s.title(),
		Excerpt:    s.faker.HipsterSentence(),
		Content:    s.body(4, 5),
		CoverImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", s.faker.UUID()),
		// Roughly one in five stays a draft.
		Published: s.faker.IntRange(1, 5) > 1,
	}
	if len(categories) > 0 {
		article.CategoryID = categories[s.faker.IntRange(0, len(categories)-1)].ID
	}
	return article, s.articles.CreateArticle(ctx, article)
}

func (s *Seeder) seedEngagement(ctx context.Context, article *models.Article, readers []models.User, opts Options) (int, int, error) {
	articleID := article.ID.Hex()

	comments := s.faker.IntRange(0, opts.MaxCommentsPerPost)
	for i := 0; i < comments; i++ {
		reader := readers[s.faker.IntRange(0, len(readers)-1)]
		comment := &models.Comment{ArticleID: articleID, UserID: reader.ID, Content: s.faker.HipsterSentence()}
		if err := s.comments.CreateComment(ctx, comment); err != nil {
			return 0, 0, err
		}
	}
	if comments > 0 {
		if err := s.articles.AdjustCommentsCount(ctx, articleID, comments); err != nil {
			return 0, 0, err
		}
	}

	likes := 0
	attempts := s.faker.IntRange(0, min(opts.MaxLikesPerPost, len(readers)))
	for i := 0; i < attempts; i++ {
		reader := readers[s.faker.IntRange(0, len(readers)-1)]
		err := s.likes.CreateLike(ctx, &models.Like{ArticleID: articleID, UserID: reader.ID})
		// Picking the same reader twice is fine; the pair is unique.
		if errors.Is(err, apperrors.ErrConflict) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		likes++
	}
	if likes > 0 {
		if err := s.articles.AdjustLikesCount(ctx, articleID, likes); err != nil {
			return 0, 0, err
		}
	}
	return comments, likes, nil
}

func (s *Seeder) title() string {
	words := make([]string, s.faker.IntRange(3, 7))
	for i := range words {
		words[i] = s.faker.Word()
	}
	t := strings.TrimSpace(strings.Join(words, " "))
	if t == "" {
		return "Untitled"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func (s *Seeder) body(paragraphs, sentences int) string {
	parts := make([]string, paragraphs)
	for p := range parts {
		lines := make([]string, sentences)
		for i := range lines {
			lines[i] = s.faker.HipsterSentence()
		}
		parts[p] = strings.Join(lines, " ")
	}
	return strings.Join(parts, "\n\n")
}
