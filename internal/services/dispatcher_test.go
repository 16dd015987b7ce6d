package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingNotifier struct {
	mu     sync.Mutex
	calls  []string
	err    error
	ctxErr error
}

func (r *recordingNotifier) record(ctx context.Context, call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.ctxErr = ctx.Err()
	return r.err
}

func (r *recordingNotifier) NotifyNewArticle(ctx context.Context, _, _ string, _ uint, _ string) error {
	return r.record(ctx, "article")
}

func (r *recordingNotifier) NotifyNewLike(ctx context.Context, _ string, _ uint, _, _ string) error {
	return r.record(ctx, "like")
}

func (r *recordingNotifier) NotifyNewComment(ctx context.Context, _ string, _ uint, _, _, _ string) error {
	return r.record(ctx, "comment")
}

func TestDispatcherRunsEveryEvent(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, time.Second)
	liker := &models.User{ID: 2, Name: "U2"}

	d.ArticlePublished(context.Background(), &models.Article{ID: primitive.NewObjectID(), AuthorID: 1, Title: "T"}, "Ada")
	d.ArticleLiked(context.Background(), "a", liker, "T")
	d.ArticleCommented(context.Background(), &models.Comment{ArticleID: "a", Content: "c"}, liker, "T")
	d.Wait()

	assert.ElementsMatch(t, []string{"article", "like", "comment"}, n.calls)
}

func TestDispatcherOutlivesCancelledRequest(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.ArticleLiked(ctx, "a", &models.User{ID: 2}, "T")
	d.Wait()

	assert.NoError(t, n.ctxErr)
}

func TestDispatcherCountsFailures(t *testing.T) {
	n := &recordingNotifier{err: errBoom}
	d := NewDispatcher(n, time.Second)
	counter := metrics.Get().FanoutFailures.WithLabelValues("comment")
	before := testutil.ToFloat64(counter)

	d.ArticleCommented(context.Background(), &models.Comment{ArticleID: "a"}, &models.User{ID: 2}, "T")
	d.Wait()

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
