package models

import "time"

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
)

// Notification is the inbox projection of an interaction event.
// Only IsRead ever changes, and only from false to true.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:20;not null"`
	ActorID     uint             `json:"actor_id" gorm:"not null;index"`
	RecipientID uint             `json:"recipient_id" gorm:"not null;index:idx_notification_recipient_read"`
	PostID      *uint            `json:"post_id,omitempty"`
	CommentID   *uint            `json:"comment_id,omitempty"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"not null;default:false;index:idx_notification_recipient_read"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	Notification
	Actor UserCompact `json:"actor"`
}

// MarkReadRequest marks the listed notifications read, or all of them
// when IDs is empty.
type MarkReadRequest struct {
	IDs []uint `json:"ids,omitempty" validate:"omitempty,max=500,dive,gt=0"`
}
