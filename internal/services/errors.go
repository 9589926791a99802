package services

import (
	"errors"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyLiked     = errors.New("post already liked")
	ErrNotLiked         = errors.New("post not liked")
	ErrAlreadySaved     = errors.New("post already saved")
	ErrNotSaved         = errors.New("post not saved")
	ErrForbidden        = errors.New("not allowed to modify this resource")
)

// authorize allows the owner of a resource or an admin.
func authorize(id models.Identity, ownerID uint) error {
	if id.IsAdmin || id.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}
