// Package live routes interaction events to users that hold an open
// websocket connection.
package live

import (
	"encoding/json"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

type EventKind string

const (
	KindNotification EventKind = "notification"
	KindUnreadCount  EventKind = "unread_count"
)

// Event is the payload written to a live channel. There is no
// acknowledgement; a client that misses an event catches up by polling.
type Event struct {
	Kind         EventKind                    `json:"type"`
	Notification *models.EnrichedNotification `json:"notification,omitempty"`
	UnreadCount  *int64                       `json:"unread_count,omitempty"`
}

func NotificationEvent(n models.EnrichedNotification) Event {
	return Event{Kind: KindNotification, Notification: &n}
}

func UnreadCountEvent(count int64) Event {
	return Event{Kind: KindUnreadCount, UnreadCount: &count}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
