package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// LikeRepository defines the interface for like data operations. It owns
// the cached likes_count column of posts.
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) (*models.Post, error)
	DeleteLike(ctx context.Context, postID, userID uint) (int64, error)
	GetLike(ctx context.Context, postID, userID uint) (*models.Like, error)
	GetLikesCountByPostID(ctx context.Context, postID uint) (int64, error)
	HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error)
	ListLikesAfter(ctx context.Context, postID, cursor uint, limit int) ([]models.Like, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	GetRecentLikes(ctx context.Context, postIDs []uint, perPost, limit int) ([]models.Like, error)
}

// PostgresLikeRepository implements LikeRepository on top of gorm
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike inserts the like and bumps the post's likes_count in one
// transaction. It returns the post re-read after the increment, so the
// counter is the stored one.
// The (post_id, user_id) unique index rejects a second like for the pair.
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, like.PostID).Error; err != nil {
			if isNotFound(err) {
				return ErrPostNotFound
			}
			return err
		}

		if err := tx.Create(like).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", like.PostID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
			return err
		}
		// other likes may have committed since the first read
		return tx.First(&post, like.PostID).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeleteLike removes the like and recomputes likes_count from the
// remaining rows, so any earlier drift in the cached value is repaired.
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetLike retrieves a specific like by postID and userID
func (r *PostgresLikeRepository) GetLike(ctx context.Context, postID, userID uint) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &like, nil
}

// GetLikesCountByPostID counts the live likes of a post
func (r *PostgresLikeRepository) GetLikesCountByPostID(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	_, err := r.GetLike(ctx, postID, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListLikesAfter returns up to limit likes of a post with id > cursor,
// ascending by id. A zero cursor starts from the beginning.
func (r *PostgresLikeRepository) ListLikesAfter(ctx context.Context, postID, cursor uint, limit int) ([]models.Like, error) {
	q := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if cursor > 0 {
		q = q.Where("id > ?", cursor)
	}

	var likes []models.Like
	if err := q.Order("id ASC").Limit(limit).Find(&likes).Error; err != nil {
		return nil, err
	}
	return likes, nil
}

// GetLikedPostIDs returns which of postIDs the user currently likes.
func (r *PostgresLikeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// GetRecentLikes returns the newest perPost likes of every post in
// postIDs, at most limit rows in total. Each post is ranked on its own so
// a heavily liked post cannot crowd the others out.
func (r *PostgresLikeRepository) GetRecentLikes(ctx context.Context, postIDs []uint, perPost, limit int) ([]models.Like, error) {
	if len(postIDs) == 0 || perPost <= 0 || limit <= 0 {
		return nil, nil
	}

	ranked := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("id, post_id, user_id, created_at, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY id DESC) AS rn").
		Where("post_id IN ?", postIDs)

	var likes []models.Like
	err := r.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Select("id, post_id, user_id, created_at").
		Where("rn <= ?", perPost).
		Order("id DESC").
		Limit(limit).
		Find(&likes).Error
	return likes, err
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
