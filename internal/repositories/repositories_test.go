package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func createUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	t.Helper()
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{Username: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("user%d@example.com", i)}
		require.NoError(t, db.Create(&users[i]).Error)
	}
	return users
}

func TestLikeRepositoryCounter(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 3)
	posts := NewPostgresPostRepository(db)
	likes := NewPostgresLikeRepository(db)

	post := &models.Post{AuthorID: users[0].ID, Content: "hi", LikesCount: 50}
	require.NoError(t, posts.CreatePost(ctx, post))
	assert.Equal(t, int64(0), post.LikesCount)

	updated, err := likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: users[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.LikesCount)

	_, err = likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: users[1].ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = likes.CreateLike(ctx, &models.Like{PostID: 999, UserID: users[1].ID})
	assert.ErrorIs(t, err, ErrPostNotFound)

	stored, err := posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.LikesCount)

	count, err := likes.DeleteLike(ctx, post.ID, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = likes.DeleteLike(ctx, post.ID, users[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLikesAfter(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 5)
	posts := NewPostgresPostRepository(db)
	likes := NewPostgresLikeRepository(db)

	post := &models.Post{AuthorID: users[0].ID, Content: "hi"}
	require.NoError(t, posts.CreatePost(ctx, post))
	for _, u := range users {
		_, err := likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: u.ID})
		require.NoError(t, err)
	}

	first, err := likes.ListLikesAfter(ctx, post.ID, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Less(t, first[0].ID, first[1].ID)

	rest, err := likes.ListLikesAfter(ctx, post.ID, first[2].ID, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Greater(t, rest[0].ID, first[2].ID)

	recent, err := likes.GetRecentLikes(ctx, []uint{post.ID}, 2, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, rest[1].ID, recent[0].ID)
}

func TestGetRecentLikesRanksEachPost(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 12)
	posts := NewPostgresPostRepository(db)
	likes := NewPostgresLikeRepository(db)

	quiet := &models.Post{AuthorID: users[0].ID, Content: "quiet"}
	busy := &models.Post{AuthorID: users[0].ID, Content: "busy"}
	require.NoError(t, posts.CreatePost(ctx, quiet))
	require.NoError(t, posts.CreatePost(ctx, busy))

	for _, u := range users[:2] {
		_, err := likes.CreateLike(ctx, &models.Like{PostID: quiet.ID, UserID: u.ID})
		require.NoError(t, err)
	}
	for _, u := range users[2:] {
		_, err := likes.CreateLike(ctx, &models.Like{PostID: busy.ID, UserID: u.ID})
		require.NoError(t, err)
	}

	recent, err := likes.GetRecentLikes(ctx, []uint{quiet.ID, busy.ID}, 3, 5)
	require.NoError(t, err)

	perPost := map[uint]int{}
	for i, l := range recent {
		perPost[l.PostID]++
		if i > 0 {
			assert.Less(t, l.ID, recent[i-1].ID)
		}
	}
	assert.Equal(t, 2, perPost[quiet.ID])
	assert.Equal(t, 3, perPost[busy.ID])

	capped, err := likes.GetRecentLikes(ctx, []uint{quiet.ID, busy.ID}, 3, 4)
	require.NoError(t, err)
	assert.Len(t, capped, 4)
}

func TestCreateLikeReturnsStoredCounter(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 2)
	posts := NewPostgresPostRepository(db)
	likes := NewPostgresLikeRepository(db)

	post := &models.Post{AuthorID: users[0].ID, Content: "hi"}
	require.NoError(t, posts.CreatePost(ctx, post))

	// stands in for likes committed by other requests between the read of
	// the post and the increment
	require.NoError(t, db.Exec(`CREATE TRIGGER concurrent_likes AFTER INSERT ON likes
		BEGIN UPDATE posts SET likes_count = likes_count + 10 WHERE id = NEW.post_id; END`).Error)

	updated, err := likes.CreateLike(ctx, &models.Like{PostID: post.ID, UserID: users[1].ID})
	require.NoError(t, err)

	stored, err := posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), stored.LikesCount)
	assert.Equal(t, stored.LikesCount, updated.LikesCount)
}

func TestGetHomeFeed(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 4)
	posts := NewPostgresPostRepository(db)
	follows := NewPostgresFollowRepository(db)
	viewer, friend, stranger, fan := users[0], users[1], users[2], users[3]

	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: viewer.ID, FollowingID: friend.ID}))
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: fan.ID, FollowingID: stranger.ID}))

	var want []uint
	for _, author := range []models.User{viewer, friend, stranger, friend} {
		p := &models.Post{AuthorID: author.ID, Content: "post by " + author.Username}
		require.NoError(t, posts.CreatePost(ctx, p))
		if author.ID != stranger.ID {
			want = append([]uint{p.ID}, want...)
		}
	}

	page, total, err := posts.GetHomeFeed(ctx, viewer.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	got := make([]uint, len(page))
	for i, p := range page {
		got[i] = p.ID
	}
	assert.Equal(t, want, got)

	lonely, total, err := posts.GetHomeFeed(ctx, stranger.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, lonely, 1)
	assert.Equal(t, stranger.ID, lonely[0].AuthorID)
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := createUsers(t, db, 3)
	follows := NewPostgresFollowRepository(db)

	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: users[0].ID, FollowingID: users[1].ID}))
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: users[0].ID, FollowingID: users[2].ID}))
	assert.ErrorIs(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: users[0].ID, FollowingID: users[1].ID}), ErrDuplicate)

	batch, err := follows.BatchIsFollowing(ctx, users[0].ID, []uint{users[1].ID, users[0].ID})
	require.NoError(t, err)
	assert.True(t, batch[users[1].ID])
	assert.False(t, batch[users[0].ID])

	count, err := follows.GetFollowersCount(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, follows.DeleteFollow(ctx, users[0].ID, users[1].ID))
	assert.ErrorIs(t, follows.DeleteFollow(ctx, users[0].ID, users[1].ID), ErrNotFound)
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)

	mine := &models.Notification{Type: models.NotificationLike, ActorID: 1, RecipientID: 2}
	theirs := &models.Notification{Type: models.NotificationLike, ActorID: 1, RecipientID: 3}
	require.NoError(t, repo.CreateNotification(ctx, mine))
	require.NoError(t, repo.CreateNotification(ctx, theirs))

	n, err := repo.MarkAsRead(ctx, 2, []uint{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err := repo.GetUnreadCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	n, err = repo.MarkAsRead(ctx, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.MarkAllAsRead(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
}
