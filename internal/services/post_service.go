package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

type PostService struct {
	posts      repositories.PostRepository
	engagement *EngagementService
}

func NewPostService(posts repositories.PostRepository, engagement *EngagementService) *PostService {
	return &PostService{posts: posts, engagement: engagement}
}

func (s *PostService) Create(ctx context.Context, author models.Identity, req *models.CreatePostRequest) (*models.Post, error) {
	post := &models.Post{
		AuthorID: author.UserID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Tags:     models.JoinTags(req.Tags),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns one post annotated for viewerID.
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*models.EnrichedPost, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	enriched, err := s.engagement.AnnotateViewerState(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// Update edits a post. Only the author or an admin may do so.
func (s *PostService) Update(ctx context.Context, actor models.Identity, postID uint, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, post.AuthorID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Tags != nil {
		post.Tags = models.JoinTags(req.Tags)
	}
	post.UpdatedAt = time.Now()

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, actor models.Identity, postID uint) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	if err := authorize(actor, post.AuthorID); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

func (s *PostService) find(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}
