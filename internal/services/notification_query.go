package services

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 100
)

// ClampLimit bounds a requested list size to 1..MaxNotificationLimit, using
// the default when the request is unset.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultNotificationLimit
	case limit > MaxNotificationLimit:
		return MaxNotificationLimit
	default:
		return limit
	}
}

// GetUserNotifications returns the user's newest notifications with article
// titles and current actor details joined in.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	rows, err := s.notifications.ListByUser(ctx, userID, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, rows)
	return rows, nil
}

// GetNotification returns NotFound when the row is absent or owned by
// another user.
func (s *NotificationService) GetNotification(ctx context.Context, id, userID uint) (*models.Notification, error) {
	row, err := s.notifications.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	rows := []models.Notification{*row}
	s.enrich(ctx, rows)
	return &rows[0], nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	return s.notifications.MarkAsRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, id, userID uint) error {
	return s.notifications.Delete(ctx, id, userID)
}

// enrich joins titles and refreshes actors in place. Lookups are batched, one
// query per store. Failures keep the stored values.
func (s *NotificationService) enrich(ctx context.Context, rows []models.Notification) {
	if len(rows) == 0 {
		return
	}

	articleIDs := make([]string, 0, len(rows))
	actorIDs := make([]uint, 0, len(rows))
	seenArticle := make(map[string]struct{})
	seenActor := make(map[uint]struct{})
	for _, n := range rows {
		if _, ok := seenArticle[n.ArticleID]; !ok && n.ArticleID != "" {
			seenArticle[n.ArticleID] = struct{}{}
			articleIDs = append(articleIDs, n.ArticleID)
		}
		if _, ok := seenActor[n.Actor.ID]; !ok && n.Actor.ID != 0 {
			seenActor[n.Actor.ID] = struct{}{}
			actorIDs = append(actorIDs, n.Actor.ID)
		}
	}

	titles, err := s.articles.GetTitles(ctx, articleIDs)
	if err != nil {
		logger.WarnWithFields("article title join failed", err, zap.Int("articles", len(articleIDs)))
	}

	actors := make(map[uint]models.User, len(actorIDs))
	users, err := s.users.GetUsersByIDs(ctx, actorIDs)
	if err != nil {
		logger.WarnWithFields("actor refresh failed", err, zap.Int("actors", len(actorIDs)))
	}
	for _, u := range users {
		actors[u.ID] = u
	}

	for i := range rows {
		rows[i].ArticleTitle = titles[rows[i].ArticleID]
		if u, ok := actors[rows[i].Actor.ID]; ok {
			rows[i].Actor.Name = u.Name
			rows[i].Actor.Avatar = u.AvatarURL
		}
	}
}
