package models

import "time"

// Like is the fact that a user currently likes a post. ID is
// auto-incremented and never reused, which makes it usable as a
// keyset cursor.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_post_user_like"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_post_user_like;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Liker is one row of a liked-by page.
type Liker struct {
	LikeID  uint        `json:"like_id"`
	User    UserCompact `json:"user"`
	LikedAt time.Time   `json:"liked_at"`
}

// LikersPage is a forward-only page of likers.
type LikersPage struct {
	Likers       []Liker `json:"likers"`
	NextCursor   uint    `json:"next_cursor,omitempty"`
	HasMorePages bool    `json:"has_more_pages"`
}
