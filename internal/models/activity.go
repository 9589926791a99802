package models

import "time"

// Activity is the timeline projection of an interaction event. It is
// stored either in the relational store or in MongoDB, so it carries a
// string id generated by the application.
type Activity struct {
	ID           string           `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID       uint             `json:"user_id" gorm:"not null;index" bson:"user_id"`
	TargetUserID uint             `json:"target_user_id" gorm:"not null;index:idx_activity_target_created" bson:"target_user_id"`
	Type         NotificationType `json:"type" gorm:"size:20;not null" bson:"type"`
	PostID       *uint            `json:"post_id,omitempty" bson:"post_id,omitempty"`
	CommentID    *uint            `json:"comment_id,omitempty" bson:"comment_id,omitempty"`
	IsRead       bool             `json:"is_read" gorm:"not null;default:false" bson:"is_read"`
	CreatedAt    time.Time        `json:"created_at" gorm:"index:idx_activity_target_created" bson:"created_at"`
}
