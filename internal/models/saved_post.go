package models

import "time"

// SavedPost represents a bookmarked/saved post by a user
type SavedPost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_post_save"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_user_post_save;index"`
	CreatedAt time.Time `json:"created_at"`
}
