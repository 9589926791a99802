package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	GetHomeFeed(ctx context.Context, viewerID uint, offset, limit int) ([]models.Post, int64, error)
	GetPopularPosts(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	SearchPosts(ctx context.Context, query string, offset, limit int) ([]models.Post, int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

// PostgresPostRepository implements PostRepository on top of gorm
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post. Counters always start at zero.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.LikesCount = 0
	post.CommentsCount = 0
	return r.db.WithContext(ctx).Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByIDs loads posts in one query; missing ids are skipped.
func (r *PostgresPostRepository) GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// GetHomeFeed returns posts written by viewerID or anyone viewerID
// follows, newest first. Equal timestamps fall back to the newer id. The
// followee set stays in SQL so its size is not bound by query parameters.
func (r *PostgresPostRepository) GetHomeFeed(ctx context.Context, viewerID uint, offset, limit int) ([]models.Post, int64, error) {
	followees := r.db.Model(&models.Follow{}).
		Select("following_id").
		Where("follower_id = ?", viewerID)

	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? OR author_id IN (?)", viewerID, followees)
	return r.page(q, "created_at DESC, id DESC", offset, limit)
}

// GetPopularPosts ranks all posts by likes, then recency.
func (r *PostgresPostRepository) GetPopularPosts(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	return r.page(q, "likes_count DESC, created_at DESC, id DESC", offset, limit)
}

// SearchPosts matches query case-insensitively as a substring of title,
// content or tags.
func (r *PostgresPostRepository) SearchPosts(ctx context.Context, query string, offset, limit int) ([]models.Post, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\' OR LOWER(tags) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern)
	return r.page(q, "created_at DESC, id DESC", offset, limit)
}

func (r *PostgresPostRepository) page(q *gorm.DB, order string, offset, limit int) ([]models.Post, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost writes the editable columns. Counters are left alone.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":      post.Title,
			"content":    post.Content,
			"tags":       post.Tags,
			"updated_at": post.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post together with its likes, saves and comments.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		for _, m := range []any{&models.Like{}, &models.SavedPost{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ PostRepository = (*PostgresPostRepository)(nil)
