package services

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.uber.org/zap"
)

// Notifier is the fan-out half of NotificationService.
type Notifier interface {
	NotifyNewArticle(ctx context.Context, articleID, title string, authorID uint, authorName string) error
	NotifyNewLike(ctx context.Context, articleID string, likerID uint, likerName, articleTitle string) error
	NotifyNewComment(ctx context.Context, articleID string, commenterID uint, commenterName, articleTitle, commentText string) error
}

// Dispatcher runs fan-out in the background once the triggering write has
// committed. Failures are logged and counted; they never reach the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout}
}

func (d *Dispatcher) ArticlePublished(ctx context.Context, article *models.Article, authorName string) {
	articleID := article.ID.Hex()
	d.run(ctx, "article", func(ctx context.Context) error {
		return d.notifier.NotifyNewArticle(ctx, articleID, article.Title, article.AuthorID, authorName)
	})
}

func (d *Dispatcher) ArticleLiked(ctx context.Context, articleID string, liker *models.User, articleTitle string) {
	d.run(ctx, "like", func(ctx context.Context) error {
		return d.notifier.NotifyNewLike(ctx, articleID, liker.ID, liker.Name, articleTitle)
	})
}

func (d *Dispatcher) ArticleCommented(ctx context.Context, comment *models.Comment, commenter *models.User, articleTitle string) {
	d.run(ctx, "comment", func(ctx context.Context) error {
		return d.notifier.NotifyNewComment(ctx, comment.ArticleID, commenter.ID, commenter.Name, articleTitle, comment.Content)
	})
}

// Wait blocks until every dispatched fan-out has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// run detaches from the request context so fan-out outlives the response.
func (d *Dispatcher) run(ctx context.Context, event string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.Get().FanoutFailures.WithLabelValues(event).Inc()
			logger.ErrorWithFields("notification fan-out failed", err, zap.String("event", event))
		}
	}()
}
