package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Articles is an in-memory ArticleRepository for tests that do not run
// MongoDB.
type Articles struct {
	mu   sync.Mutex
	docs map[string]*models.Article
}

func NewArticles() *Articles {
	return &Articles{docs: map[string]*models.Article{}}
}

func (m *Articles) get(id string) (*models.Article, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, apperrors.BadRequest("invalid article id")
	}
	a, ok := m.docs[id]
	if !ok {
		return nil, apperrors.NotFound("article")
	}
	return a, nil
}

func (m *Articles) CreateArticle(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Published {
		a.PublishedAt = &now
	}
	cp := *a
	m.docs[a.ID.Hex()] = &cp
	return nil
}

func (m *Articles) GetArticleByID(_ context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.get(id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (m *Articles) ListArticles(_ context.Context, f models.ArticleFilter, skip, limit int64) ([]models.Article, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Article
	for _, a := range m.docs {
		if f.PublishedOnly && !a.Published {
			continue
		}
		if f.CategoryID != 0 && a.CategoryID != f.CategoryID {
			continue
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if skip >= total {
		return []models.Article{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (m *Articles) PublishArticle(_ context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if a.Published {
		return nil, apperrors.Conflict("published article")
	}
	now := time.Now().UTC()
	a.Published, a.PublishedAt = true, &now
	cp := *a
	return &cp, nil
}

func (m *Articles) DeleteArticle(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.get(id); err != nil {
		return err
	}
	delete(m.docs, id)
	return nil
}

func (m *Articles) GetTitles(_ context.Context, ids []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if a, ok := m.docs[id]; ok {
			out[id] = a.Title
		}
	}
	return out, nil
}

func (m *Articles) IncrementViews(_ context.Context, id string) error {
	return m.adjust(id, func(a *models.Article) { a.Views++ })
}

func (m *Articles) AdjustLikesCount(_ context.Context, id string, delta int) error {
	return m.adjust(id, func(a *models.Article) { a.LikesCount += int64(delta) })
}

func (m *Articles) AdjustCommentsCount(_ context.Context, id string, delta int) error {
	return m.adjust(id, func(a *models.Article) { a.CommentsCount += int64(delta) })
}

func (m *Articles) adjust(id string, fn func(*models.Article)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.get(id)
	if err != nil {
		return err
	}
	fn(a)
	return nil
}
