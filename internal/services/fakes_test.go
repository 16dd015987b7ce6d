package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBoom = errors.New("boom")

type fakeUsers struct {
	mu      sync.Mutex
	users   map[uint]models.User
	listErr error
	getErr  error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[uint]models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return &u, nil
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) ListUserIDs(context.Context) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]uint, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeArticles struct {
	articles map[string]models.Article
	err      error
}

func newFakeArticles(articles ...models.Article) *fakeArticles {
	f := &fakeArticles{articles: map[string]models.Article{}}
	for _, a := range articles {
		f.articles[a.ID.Hex()] = a
	}
	return f
}

func (f *fakeArticles) GetArticleByID(_ context.Context, id string) (*models.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.articles[id]
	if !ok {
		return nil, apperrors.NotFound("article")
	}
	return &a, nil
}

func (f *fakeArticles) GetTitles(_ context.Context, ids []string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if a, ok := f.articles[id]; ok {
			out[id] = a.Title
		}
	}
	return out, nil
}

type fakeEngagement struct {
	ids map[string][]uint
	err error
}

func (f *fakeEngagement) DistinctLikerIDs(_ context.Context, articleID string) ([]uint, error) {
	return f.ids[articleID], f.err
}

func (f *fakeEngagement) DistinctCommenterIDs(_ context.Context, articleID string) ([]uint, error) {
	return f.ids[articleID], f.err
}

type fakeNotifications struct {
	mu        sync.Mutex
	rows      []models.Notification
	nextID    uint
	batches   int
	err       error
	lastLimit int
}

func (f *fakeNotifications) CreateBatch(_ context.Context, rows []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches++
	for i := range rows {
		f.nextID++
		rows[i].ID = f.nextID
		f.rows = append(f.rows, rows[i])
	}
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uint, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []models.Notification
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeNotifications) GetForUser(_ context.Context, id, userID uint) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("notification")
}

func (f *fakeNotifications) UnreadCount(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.rows {
		if r.UserID == userID && !r.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkAsRead(_ context.Context, id, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAllAsRead(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) Delete(_ context.Context, id, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, r := range f.rows {
		if !(r.ID == id && r.UserID == userID) {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeNotifications) forUser(userID uint) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.Notification
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, n)
	return f.err
}

type fixture struct {
	users         *fakeUsers
	articles      *fakeArticles
	likes         *fakeEngagement
	comments      *fakeEngagement
	notifications *fakeNotifications
	publisher     *fakePublisher
	svc           *NotificationService
	article       models.Article
}

func newFixture(users ...models.User) *fixture {
	article := models.Article{
		ID:        primitive.NewObjectID(),
		AuthorID:  1,
		Title:     "Go Generics",
		Published: true,
		CreatedAt: time.Now(),
	}
	f := &fixture{
		users:         newFakeUsers(users...),
		articles:      newFakeArticles(article),
		likes:         &fakeEngagement{ids: map[string][]uint{}},
		comments:      &fakeEngagement{ids: map[string][]uint{}},
		notifications: &fakeNotifications{},
		publisher:     &fakePublisher{},
		article:       article,
	}
	f.svc = NewNotificationService(f.users, f.articles, f.likes, f.comments, f.notifications, f.publisher)
	return f
}

func user(id uint, name string) models.User {
	return models.User{ID: id, Name: name, AvatarURL: name + ".png"}
}
