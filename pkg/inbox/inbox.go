// Package inbox keeps a client-side view of a user's notifications that can
// be fed from several delivery paths at once.
package inbox

import (
	"sort"
	"sync"

	"github.com/anonto42/inkwell/backend/internal/models"
)

// Inbox is a set of notifications keyed by id. A row delivered more than
// once collapses into a single entry; the most recent delivery wins.
type Inbox struct {
	mu   sync.Mutex
	rows map[uint]models.Notification
}

func New() *Inbox {
	return &Inbox{rows: make(map[uint]models.Notification)}
}

// Upsert stores rows and returns those that were not present before.
func (i *Inbox) Upsert(rows ...models.Notification) []models.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()

	var added []models.Notification
	for _, row := range rows {
		if _, ok := i.rows[row.ID]; !ok {
			added = append(added, row)
		}
		i.rows[row.ID] = row
	}
	return added
}

// MarkRead records a local read so the view updates before the next poll.
func (i *Inbox) MarkRead(id uint) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if row, ok := i.rows[id]; ok {
		row.IsRead = true
		i.rows[id] = row
	}
}

func (i *Inbox) MarkAllRead() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, row := range i.rows {
		row.IsRead = true
		i.rows[id] = row
	}
}

func (i *Inbox) Remove(id uint) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.rows, id)
}

// Items returns the rows newest first.
func (i *Inbox) Items() []models.Notification {
	i.mu.Lock()
	items := make([]models.Notification, 0, len(i.rows))
	for _, row := range i.rows {
		items = append(items, row)
	}
	i.mu.Unlock()

	sort.Slice(items, func(a, b int) bool {
		if !items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].CreatedAt.After(items[b].CreatedAt)
		}
		return items[a].ID > items[b].ID
	})
	return items
}

func (i *Inbox) UnreadCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, row := range i.rows {
		if !row.IsRead {
			n++
		}
	}
	return n
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.rows)
}
