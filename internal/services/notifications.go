package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// GroupedNotifications buckets a recipient's notifications by age.
type GroupedNotifications struct {
	Today     []models.EnrichedNotification `json:"today"`
	Yesterday []models.EnrichedNotification `json:"yesterday"`
	ThisWeek  []models.EnrichedNotification `json:"this_week"`
	Older     []models.EnrichedNotification `json:"older"`
}

// UnreadCount is always counted from the store.
func (f *Fanout) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return f.notifications.GetUnreadCount(ctx, recipientID)
}

// MarkRead marks the listed notifications of recipient as read, or all of
// them when ids is empty. It returns the refreshed unread count.
func (f *Fanout) MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error) {
	var err error
	if len(ids) == 0 {
		_, err = f.notifications.MarkAllAsRead(ctx, recipientID)
	} else {
		_, err = f.notifications.MarkAsRead(ctx, recipientID, ids)
	}
	if err != nil {
		return 0, err
	}

	count, err := f.notifications.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	f.pushUnreadCount(ctx, recipientID, count)
	return count, nil
}

func (f *Fanout) ListNotifications(ctx context.Context, recipientID uint, page, limit int) ([]models.EnrichedNotification, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultNotificationLimit, maxNotificationLimit)

	rows, total, err := f.notifications.GetByRecipientID(ctx, recipientID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	enriched, err := f.enrich(ctx, rows)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return enriched, models.NewPageMeta(page, limit, total), nil
}

func (f *Fanout) GroupedNotifications(ctx context.Context, recipientID uint) (*GroupedNotifications, error) {
	today, yesterday, thisWeek, older, err := f.notifications.GetGrouped(ctx, recipientID, time.Now())
	if err != nil {
		return nil, err
	}

	all := make([]models.Notification, 0, len(today)+len(yesterday)+len(thisWeek)+len(older))
	all = append(all, today...)
	all = append(all, yesterday...)
	all = append(all, thisWeek...)
	all = append(all, older...)
	enriched, err := f.enrich(ctx, all)
	if err != nil {
		return nil, err
	}

	out := &GroupedNotifications{}
	i := 0
	take := func(n int) []models.EnrichedNotification {
		s := enriched[i : i+n]
		i += n
		return s
	}
	out.Today = take(len(today))
	out.Yesterday = take(len(yesterday))
	out.ThisWeek = take(len(thisWeek))
	out.Older = take(len(older))
	return out, nil
}

func (f *Fanout) ListActivities(ctx context.Context, userID uint, page, limit int) ([]models.Activity, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultNotificationLimit, maxNotificationLimit)

	rows, total, err := f.activities.GetByTargetUserID(ctx, userID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	if rows == nil {
		rows = []models.Activity{}
	}
	return rows, models.NewPageMeta(page, limit, total), nil
}

// enrich attaches actor previews, loading all actors in one query.
func (f *Fanout) enrich(ctx context.Context, rows []models.Notification) ([]models.EnrichedNotification, error) {
	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	for _, n := range rows {
		if !seen[n.ActorID] {
			seen[n.ActorID] = true
			ids = append(ids, n.ActorID)
		}
	}
	actors, err := f.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.EnrichedNotification, len(rows))
	for i, n := range rows {
		out[i] = models.EnrichedNotification{Notification: n}
		if a, ok := actors[n.ActorID]; ok {
			out[i].Actor = a.ToCompact()
		}
	}
	return out, nil
}
