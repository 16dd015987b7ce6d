package inbox

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is how often the watcher re-fetches the list.
const DefaultPollInterval = 5 * time.Second

// Poller fetches the user's current notification list.
type Poller interface {
	Poll(ctx context.Context) ([]models.Notification, error)
}

// Subscriber opens a push stream of newly inserted rows. The channel is
// closed when the stream ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan models.Notification, error)
}

// Watcher feeds an Inbox from a push subscription and a periodic poll at the
// same time. Either path alone keeps the inbox current.
type Watcher struct {
	inbox      *Inbox
	poller     Poller
	subscriber Subscriber
	interval   time.Duration
	onNew      func(models.Notification)
}

type Option func(*Watcher)

// WithInterval overrides DefaultPollInterval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// OnNew is called once for every row the inbox had not seen before.
func OnNew(fn func(models.Notification)) Option {
	return func(w *Watcher) { w.onNew = fn }
}

// NewWatcher builds a watcher. subscriber may be nil for poll-only mode.
func NewWatcher(inbox *Inbox, poller Poller, subscriber Subscriber, opts ...Option) *Watcher {
	w := &Watcher{
		inbox:      inbox,
		poller:     poller,
		subscriber: subscriber,
		interval:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled. It polls once immediately.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.pollLoop(ctx) })
	if w.subscriber != nil {
		g.Go(func() error { return w.pushLoop(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (w *Watcher) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	rows, err := w.poller.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.Debug("notification poll failed", zap.Error(err))
		}
		return
	}
	w.apply(rows...)
}

// pushLoop keeps a subscription open, reconnecting one interval after it
// drops.
func (w *Watcher) pushLoop(ctx context.Context) error {
	for {
		ch, err := w.subscriber.Subscribe(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.Debug("notification subscribe failed", zap.Error(err))
			}
		} else {
			w.drain(ctx, ch)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

func (w *Watcher) drain(ctx context.Context, ch <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-ch:
			if !ok {
				return
			}
			w.apply(row)
		}
	}
}

func (w *Watcher) apply(rows ...models.Notification) {
	added := w.inbox.Upsert(rows...)
	if w.onNew == nil {
		return
	}
	for _, row := range added {
		w.onNew(row)
	}
}
