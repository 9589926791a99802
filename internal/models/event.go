package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionEvent is the single description of "actor did something
// that concerns recipient". Notification and Activity rows are both
// projected from it.
type InteractionEvent struct {
	Type        NotificationType
	ActorID     uint
	RecipientID uint
	PostID      *uint
	CommentID   *uint
	Message     string
	OccurredAt  time.Time
}

// SelfTargeted reports whether the actor is acting on their own content.
func (e InteractionEvent) SelfTargeted() bool {
	return e.ActorID == e.RecipientID
}

func (e InteractionEvent) Notification() *Notification {
	return &Notification{
		Type:        e.Type,
		ActorID:     e.ActorID,
		RecipientID: e.RecipientID,
		PostID:      e.PostID,
		CommentID:   e.CommentID,
		Message:     e.Message,
		CreatedAt:   e.OccurredAt,
	}
}

func (e InteractionEvent) Activity() *Activity {
	return &Activity{
		ID:           uuid.New().String(),
		UserID:       e.ActorID,
		TargetUserID: e.RecipientID,
		Type:         e.Type,
		PostID:       e.PostID,
		CommentID:    e.CommentID,
		CreatedAt:    e.OccurredAt,
	}
}
