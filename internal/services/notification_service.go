package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserStore is the slice of the user repository the notification service reads.
type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListUserIDs(ctx context.Context) ([]uint, error)
}

type ArticleStore interface {
	GetArticleByID(ctx context.Context, id string) (*models.Article, error)
	GetTitles(ctx context.Context, ids []string) (map[string]string, error)
}

type LikeStore interface {
	DistinctLikerIDs(ctx context.Context, articleID string) ([]uint, error)
}

type CommentStore interface {
	DistinctCommenterIDs(ctx context.Context, articleID string) ([]uint, error)
}

type NotificationStore interface {
	CreateBatch(ctx context.Context, rows []models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uint) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

// Publisher pushes freshly inserted rows to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// NotificationService computes recipients for content events and owns the
// notification read surface.
type NotificationService struct {
	users         UserStore
	articles      ArticleStore
	likes         LikeStore
	comments      CommentStore
	notifications NotificationStore
	publisher     Publisher
	now           func() time.Time
}

func NewNotificationService(
	users UserStore,
	articles ArticleStore,
	likes LikeStore,
	comments CommentStore,
	notifications NotificationStore,
	publisher Publisher,
) *NotificationService {
	return &NotificationService{
		users:         users,
		articles:      articles,
		likes:         likes,
		comments:      comments,
		notifications: notifications,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// NotifyNewArticle broadcasts a new_article row to every user. The author's
// own row uses self-referential wording.
func (s *NotificationService) NotifyNewArticle(ctx context.Context, articleID, title string, authorID uint, authorName string) error {
	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	actor := models.Actor{ID: authorID, Name: authorName}
	if author, err := s.users.GetUserByID(ctx, authorID); err == nil {
		actor.Avatar = author.AvatarURL
	}

	createdAt := s.now()
	rows := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		msg := fmt.Sprintf("%s published a new article: %q", authorName, title)
		if uid == authorID {
			msg = fmt.Sprintf("You published a new article: %q", title)
		}
		rows = append(rows, models.Notification{
			UserID:    uid,
			Type:      models.NotificationNewArticle,
			ArticleID: articleID,
			Actor:     actor,
			Message:   msg,
			CreatedAt: createdAt,
		})
	}
	return s.insert(ctx, rows)
}

// NotifyNewLike notifies the article author and every earlier liker. Liking
// your own article notifies nobody.
func (s *NotificationService) NotifyNewLike(ctx context.Context, articleID string, likerID uint, likerName, articleTitle string) error {
	authorID, avatar, err := s.lookupAuthorAndAvatar(ctx, articleID, likerID)
	if err != nil {
		return err
	}
	if likerID == authorID {
		return nil
	}

	priorLikers, err := s.likes.DistinctLikerIDs(ctx, articleID)
	if err != nil {
		return fmt.Errorf("list likers: %w", err)
	}

	actor := models.Actor{ID: likerID, Name: likerName, Avatar: avatar}
	createdAt := s.now()
	rows := []models.Notification{{
		UserID:    authorID,
		Type:      models.NotificationLikeOnYourArticle,
		ArticleID: articleID,
		Actor:     actor,
		Message:   fmt.Sprintf("%s liked your article %q", likerName, articleTitle),
		CreatedAt: createdAt,
	}}
	for _, uid := range others(priorLikers, likerID, authorID) {
		rows = append(rows, models.Notification{
			UserID:    uid,
			Type:      models.NotificationLikeOnArticleYouLiked,
			ArticleID: articleID,
			Actor:     actor,
			Message:   fmt.Sprintf("%s also liked %q", likerName, articleTitle),
			CreatedAt: createdAt,
		})
	}
	return s.insert(ctx, rows)
}

// NotifyNewComment notifies the article author (unless they wrote the
// comment) and every earlier commenter other than the author.
func (s *NotificationService) NotifyNewComment(ctx context.Context, articleID string, commenterID uint, commenterName, articleTitle, commentText string) error {
	authorID, avatar, err := s.lookupAuthorAndAvatar(ctx, articleID, commenterID)
	if err != nil {
		return err
	}

	priorCommenters, err := s.comments.DistinctCommenterIDs(ctx, articleID)
	if err != nil {
		return fmt.Errorf("list commenters: %w", err)
	}

	actor := models.Actor{ID: commenterID, Name: commenterName, Avatar: avatar}
	payload := models.NotificationPayload{CommentText: commentText}
	createdAt := s.now()

	var rows []models.Notification
	if commenterID != authorID {
		rows = append(rows, models.Notification{
			UserID:    authorID,
			Type:      models.NotificationCommentOnYourArticle,
			ArticleID: articleID,
			Actor:     actor,
			Payload:   payload,
			Message:   fmt.Sprintf("%s commented on your article %q", commenterName, articleTitle),
			CreatedAt: createdAt,
		})
	}
	for _, uid := range others(priorCommenters, commenterID, authorID) {
		rows = append(rows, models.Notification{
			UserID:    uid,
			Type:      models.NotificationCommentOnArticleYouComm,
			ArticleID: articleID,
			Actor:     actor,
			Payload:   payload,
			Message:   fmt.Sprintf("%s also commented on %q", commenterName, articleTitle),
			CreatedAt: createdAt,
		})
	}
	return s.insert(ctx, rows)
}

// lookupAuthorAndAvatar resolves the article author and the actor's avatar
// concurrently. A failed avatar lookup degrades to an empty avatar.
func (s *NotificationService) lookupAuthorAndAvatar(ctx context.Context, articleID string, actorID uint) (uint, string, error) {
	var (
		authorID uint
		avatar   string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		article, err := s.articles.GetArticleByID(gctx, articleID)
		if err != nil {
			return fmt.Errorf("get article author: %w", err)
		}
		authorID = article.AuthorID
		return nil
	})
	g.Go(func() error {
		user, err := s.users.GetUserByID(gctx, actorID)
		if err != nil {
			logger.WarnWithFields("actor avatar lookup failed", err, zap.Uint("actor_id", actorID))
			return nil
		}
		avatar = user.AvatarURL
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, "", err
	}
	return authorID, avatar, nil
}

// insert writes rows in one batch and then publishes each one.
func (s *NotificationService) insert(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.notifications.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}

	m := metrics.Get()
	for _, row := range rows {
		m.NotificationsCreated.WithLabelValues(string(row.Type)).Inc()
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, row); err != nil {
			logger.WarnWithFields("publish notification failed", err,
				zap.Uint("notification_id", row.ID),
				zap.Uint("user_id", row.UserID),
			)
		}
	}
	return nil
}

// others returns ids without duplicates and without any of exclude,
// preserving first-seen order.
func others(ids []uint, exclude ...uint) []uint {
	seen := make(map[uint]struct{}, len(ids)+len(exclude))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
