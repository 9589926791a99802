package services

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
)

// FeedService assembles read-only post lists. Every call is a function of
// the current store contents and its paging arguments.
type FeedService struct {
	posts      repositories.PostRepository
	saves      repositories.SavedPostRepository
	engagement *EngagementService
}

func NewFeedService(
	posts repositories.PostRepository,
	saves repositories.SavedPostRepository,
	engagement *EngagementService,
) *FeedService {
	return &FeedService{posts: posts, saves: saves, engagement: engagement}
}

// Home returns posts by the viewer and everyone they follow, newest first.
func (s *FeedService) Home(ctx context.Context, viewerID uint, page, limit int) ([]models.EnrichedPost, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultFeedLimit, maxFeedLimit)

	posts, total, err := s.posts.GetHomeFeed(ctx, viewerID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return s.annotate(ctx, posts, viewerID, page, limit, total)
}

// Explore ranks all posts by likes, then recency. viewerID may be zero.
func (s *FeedService) Explore(ctx context.Context, viewerID uint, page, limit int) ([]models.EnrichedPost, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultFeedLimit, maxFeedLimit)

	posts, total, err := s.posts.GetPopularPosts(ctx, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return s.annotate(ctx, posts, viewerID, page, limit, total)
}

// Search filters posts whose title, content or tags contain query.
func (s *FeedService) Search(ctx context.Context, query string, viewerID uint, page, limit int) ([]models.EnrichedPost, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultFeedLimit, maxFeedLimit)

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.EnrichedPost{}, models.NewPageMeta(page, limit, 0), nil
	}

	posts, total, err := s.posts.SearchPosts(ctx, query, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return s.annotate(ctx, posts, viewerID, page, limit, total)
}

// Saved returns the viewer's saved posts, most recently saved first.
func (s *FeedService) Saved(ctx context.Context, viewerID uint, page, limit int) ([]models.EnrichedPost, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultFeedLimit, maxFeedLimit)

	saved, total, err := s.saves.GetSavedPostsByUser(ctx, viewerID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	ids := make([]uint, len(saved))
	for i, sp := range saved {
		ids[i] = sp.PostID
	}
	found, err := s.posts.GetPostsByIDs(ctx, ids)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	byID := make(map[uint]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]models.Post, 0, len(saved))
	for _, sp := range saved {
		if p, ok := byID[sp.PostID]; ok {
			posts = append(posts, p)
		}
	}
	return s.annotate(ctx, posts, viewerID, page, limit, total)
}

func (s *FeedService) annotate(ctx context.Context, posts []models.Post, viewerID uint, page, limit int, total int64) ([]models.EnrichedPost, models.PageMeta, error) {
	enriched, err := s.engagement.AnnotateViewerState(ctx, posts, viewerID)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return enriched, models.NewPageMeta(page, limit, total), nil
}
