package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

type UserService struct {
	users repositories.UserRepository
	graph *GraphService
}

func NewUserService(users repositories.UserRepository, graph *GraphService) *UserService {
	return &UserService{users: users, graph: graph}
}

// Profile returns a user with live follow counts. IsFollowing is relative
// to viewerID, which may be zero.
func (s *UserService) Profile(ctx context.Context, userID, viewerID uint) (*models.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	counts, err := s.graph.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.graph.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		User:           *user,
		FollowerCount:  counts.FollowerCount,
		FollowingCount: counts.FollowingCount,
		IsFollowing:    following,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, page, limit int) ([]models.UserCompact, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultGraphLimit, maxGraphLimit)
	users, total, err := s.users.SearchUsers(ctx, query, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return compact(users), models.NewPageMeta(page, limit, total), nil
}
