package models

import (
	"strings"
	"time"
)

// Post is a published post. LikesCount and CommentsCount are cached
// aggregates owned by the like and comment repositories.
type Post struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AuthorID      uint      `json:"author_id" gorm:"not null;index"`
	Title         string    `json:"title" gorm:"size:200"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	Tags          string    `json:"tags" gorm:"size:500"` // comma separated, lower case
	LikesCount    int64     `json:"likes_count" gorm:"not null;default:0;index"`
	CommentsCount int64     `json:"comments_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// JoinTags normalises a tag list into the stored representation.
func JoinTags(tags []string) string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string   `json:"title" validate:"max=200"`
	Content string   `json:"content" validate:"required,min=1,max=2000"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title   *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content string   `json:"content,omitempty" validate:"omitempty,min=1,max=2000"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
}

// EnrichedPost is a post with author info and viewer-specific flags
type EnrichedPost struct {
	Post
	Author  UserCompact   `json:"author"`
	IsLiked bool          `json:"is_liked"`
	IsSaved bool          `json:"is_saved"`
	Likers  []UserCompact `json:"likers"`
}
