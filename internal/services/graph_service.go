package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

const (
	defaultGraphLimit = 20
	maxGraphLimit     = 100
)

// GraphService owns follow edges. Counts are always computed from edges.
type GraphService struct {
	follows repositories.FollowRepository
	users   repositories.UserRepository
	fanout  *Fanout
}

func NewGraphService(follows repositories.FollowRepository, users repositories.UserRepository, fanout *Fanout) *GraphService {
	return &GraphService{follows: follows, users: users, fanout: fanout}
}

// Follow creates the edge follower -> followee, notifies the followee and
// returns the followee's refreshed counts.
func (s *GraphService) Follow(ctx context.Context, followerID, followeeID uint) (*models.FollowCounts, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	if _, err := s.users.GetUserByID(ctx, followeeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followeeID}
	if err := s.follows.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}

	s.fanout.Dispatch(ctx, models.InteractionEvent{
		Type:        models.NotificationFollow,
		ActorID:     followerID,
		RecipientID: followeeID,
		Message:     "started following you",
		OccurredAt:  follow.CreatedAt,
	})

	return s.Counts(ctx, followeeID)
}

// Unfollow deletes the edge and returns the former followee's counts.
func (s *GraphService) Unfollow(ctx context.Context, followerID, followeeID uint) (*models.FollowCounts, error) {
	if err := s.follows.DeleteFollow(ctx, followerID, followeeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFollowing
		}
		return nil, err
	}
	return s.Counts(ctx, followeeID)
}

func (s *GraphService) Counts(ctx context.Context, userID uint) (*models.FollowCounts, error) {
	counts := &models.FollowCounts{UserID: userID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts.FollowerCount, err = s.follows.GetFollowersCount(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		counts.FollowingCount, err = s.follows.GetFollowingCount(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *GraphService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followerID == followeeID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, followerID, followeeID)
}

func (s *GraphService) Followers(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultGraphLimit, maxGraphLimit)
	users, err := s.follows.GetFollowers(ctx, userID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	total, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return compact(users), models.NewPageMeta(page, limit, total), nil
}

func (s *GraphService) Following(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultGraphLimit, maxGraphLimit)
	users, err := s.follows.GetFollowing(ctx, userID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	total, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return compact(users), models.NewPageMeta(page, limit, total), nil
}

func compact(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
