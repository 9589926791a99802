package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

const (
	DefaultLikersPageSize = 9
	maxLikersPageSize     = 50

	defaultLikerPreviewLimit = 200
	likerPreviewPerPost      = 3
)

// EngagementService owns likes and saves.
type EngagementService struct {
	posts  repositories.PostRepository
	likes  repositories.LikeRepository
	saves  repositories.SavedPostRepository
	users  repositories.UserRepository
	fanout *Fanout

	likerPreviewLimit int
}

func NewEngagementService(
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	saves repositories.SavedPostRepository,
	users repositories.UserRepository,
	fanout *Fanout,
	likerPreviewLimit int,
) *EngagementService {
	if likerPreviewLimit <= 0 {
		likerPreviewLimit = defaultLikerPreviewLimit
	}
	return &EngagementService{
		posts:             posts,
		likes:             likes,
		saves:             saves,
		users:             users,
		fanout:            fanout,
		likerPreviewLimit: likerPreviewLimit,
	}
}

// Like records that userID likes postID and bumps the post's counter in the
// same transaction. The author is notified unless they liked their own post.
func (s *EngagementService) Like(ctx context.Context, userID, postID uint) (*models.Like, *models.Post, error) {
	like := &models.Like{PostID: postID, UserID: userID}
	post, err := s.likes.CreateLike(ctx, like)
	switch {
	case errors.Is(err, repositories.ErrPostNotFound):
		return nil, nil, ErrPostNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return nil, nil, ErrAlreadyLiked
	case err != nil:
		return nil, nil, err
	}

	s.fanout.Dispatch(ctx, models.InteractionEvent{
		Type:        models.NotificationLike,
		ActorID:     userID,
		RecipientID: post.AuthorID,
		PostID:      &post.ID,
		Message:     "liked your post",
		OccurredAt:  like.CreatedAt,
	})
	return like, post, nil
}

// Unlike removes the like and returns the recomputed like count.
func (s *EngagementService) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	count, err := s.likes.DeleteLike(ctx, postID, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, ErrNotLiked
	}
	return count, err
}

func (s *EngagementService) Save(ctx context.Context, userID, postID uint) (*models.SavedPost, error) {
	saved := &models.SavedPost{UserID: userID, PostID: postID}
	err := s.saves.SavePost(ctx, saved)
	switch {
	case errors.Is(err, repositories.ErrPostNotFound):
		return nil, ErrPostNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return nil, ErrAlreadySaved
	case err != nil:
		return nil, err
	}
	return saved, nil
}

func (s *EngagementService) Unsave(ctx context.Context, userID, postID uint) error {
	err := s.saves.UnsavePost(ctx, userID, postID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotSaved
	}
	return err
}

// ListLikers returns one page of a post's likers ordered by like id.
// Pass the previous page's NextCursor to continue; zero starts at the
// beginning.
func (s *EngagementService) ListLikers(ctx context.Context, postID, cursor uint, pageSize int) (*models.LikersPage, error) {
	if pageSize <= 0 || pageSize > maxLikersPageSize {
		pageSize = DefaultLikersPageSize
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	likes, err := s.likes.ListLikesAfter(ctx, postID, cursor, pageSize+1)
	if err != nil {
		return nil, err
	}

	page := &models.LikersPage{Likers: []models.Liker{}}
	if len(likes) > pageSize {
		likes = likes[:pageSize]
		page.HasMorePages = true
	}
	if len(likes) == 0 {
		return page, nil
	}

	userIDs := make([]uint, len(likes))
	for i, l := range likes {
		userIDs[i] = l.UserID
	}
	users, err := s.users.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, l := range likes {
		liker := models.Liker{LikeID: l.ID, LikedAt: l.CreatedAt}
		if u, ok := users[l.UserID]; ok {
			liker.User = u.ToCompact()
		} else {
			liker.User = models.UserCompact{ID: l.UserID}
		}
		page.Likers = append(page.Likers, liker)
	}
	page.NextCursor = likes[len(likes)-1].ID
	return page, nil
}

// AnnotateViewerState attaches authors, a few recent likers per post and
// the viewer's like/save flags. A zero viewerID marks nothing.
func (s *EngagementService) AnnotateViewerState(ctx context.Context, posts []models.Post, viewerID uint) ([]models.EnrichedPost, error) {
	out := make([]models.EnrichedPost, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	var (
		liked  map[uint]bool
		saved  map[uint]bool
		recent []models.Like
	)
	g, gctx := errgroup.WithContext(ctx)
	if viewerID != 0 {
		g.Go(func() error {
			var err error
			liked, err = s.likes.GetLikedPostIDs(gctx, viewerID, postIDs)
			return err
		})
		g.Go(func() error {
			var err error
			saved, err = s.saves.GetSavedPostIDs(gctx, viewerID, postIDs)
			return err
		})
	}
	g.Go(func() error {
		var err error
		recent, err = s.likes.GetRecentLikes(gctx, postIDs, likerPreviewPerPost, s.likerPreviewLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	likersByPost := make(map[uint][]uint, len(posts))
	userIDs := make([]uint, 0, len(posts)+len(recent))
	for _, p := range posts {
		userIDs = append(userIDs, p.AuthorID)
	}
	for _, l := range recent {
		if len(likersByPost[l.PostID]) >= likerPreviewPerPost {
			continue
		}
		likersByPost[l.PostID] = append(likersByPost[l.PostID], l.UserID)
		userIDs = append(userIDs, l.UserID)
	}

	users, err := s.users.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i, p := range posts {
		ep := models.EnrichedPost{
			Post:    p,
			IsLiked: liked[p.ID],
			IsSaved: saved[p.ID],
			Likers:  []models.UserCompact{},
		}
		if a, ok := users[p.AuthorID]; ok {
			ep.Author = a.ToCompact()
		}
		for _, id := range likersByPost[p.ID] {
			if u, ok := users[id]; ok {
				ep.Likers = append(ep.Likers, u.ToCompact())
			}
		}
		out[i] = ep
	}
	return out, nil
}
