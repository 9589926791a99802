package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

func TestLikeThenUnlike(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")

	like, updated, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, like.UserID)
	assert.Equal(t, int64(1), updated.LikesCount)
	assert.Equal(t, int64(1), e.reloadPost(t, post.ID).LikesCount)

	e.fanout.Wait()
	notifications := e.notificationsFor(t, bob.ID)
	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, models.NotificationLike, n.Type)
	assert.Equal(t, alice.ID, n.ActorID)
	require.NotNil(t, n.PostID)
	assert.Equal(t, post.ID, *n.PostID)
	assert.False(t, n.IsRead)
	assert.Equal(t, int64(1), e.countRows(t, &models.Activity{}, "target_user_id = ?", bob.ID))

	count, err := e.engagement.Unlike(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, int64(0), e.reloadPost(t, post.ID).LikesCount)

	e.fanout.Wait()
	after := e.notificationsFor(t, bob.ID)
	require.Len(t, after, 1)
	assert.Equal(t, n.ID, after[0].ID)
	assert.False(t, after[0].IsRead)
}

func TestLikeTwiceKeepsCounter(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")

	_, _, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)

	_, _, err = e.engagement.Like(e.ctx, alice.ID, post.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.Equal(t, int64(1), e.reloadPost(t, post.ID).LikesCount)
	e.fanout.Wait()
}

func TestLikeMissingPost(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")

	_, _, err := e.engagement.Like(e.ctx, alice.ID, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, int64(0), e.countRows(t, &models.Like{}, "user_id = ?", alice.ID))
}

func TestUnlikeWithoutLike(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	post := e.post(t, alice.ID, "hello")

	_, err := e.engagement.Unlike(e.ctx, alice.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotLiked)
}

func TestUnlikeRepairsDriftedCounter(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	a := e.user(t, "a")
	b := e.user(t, "b")
	post := e.post(t, author.ID, "hello")

	_, _, err := e.engagement.Like(e.ctx, a.ID, post.ID)
	require.NoError(t, err)
	_, _, err = e.engagement.Like(e.ctx, b.ID, post.ID)
	require.NoError(t, err)
	e.fanout.Wait()

	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("likes_count", 99).Error)

	count, err := e.engagement.Unlike(e.ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(1), e.reloadPost(t, post.ID).LikesCount)
}

func TestConcurrentLikesBySameUser(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyLiked):
				dupes++
			}
		}()
	}
	wg.Wait()
	e.fanout.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, dupes)
	assert.Equal(t, int64(1), e.reloadPost(t, post.ID).LikesCount)
	assert.Len(t, e.notificationsFor(t, bob.ID), 1)
}

func TestConcurrentLikesByManyUsers(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	post := e.post(t, author.ID, "hello")

	var likers []models.User
	for i := 0; i < 20; i++ {
		likers = append(likers, e.user(t, "user"+string(rune('a'+i))))
	}

	var wg sync.WaitGroup
	for _, u := range likers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, _, err := e.engagement.Like(e.ctx, id, post.ID)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()
	e.fanout.Wait()

	assert.Equal(t, int64(len(likers)), e.reloadPost(t, post.ID).LikesCount)
	assert.Equal(t, int64(len(likers)), e.countRows(t, &models.Like{}, "post_id = ?", post.ID))
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	post := e.post(t, alice.ID, "mine")

	_, _, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	e.fanout.Wait()

	assert.Empty(t, e.notificationsFor(t, alice.ID))
	assert.Equal(t, int64(0), e.countRows(t, &models.Activity{}, "target_user_id = ?", alice.ID))
}

func TestSaveAndUnsave(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")

	saved, err := e.engagement.Save(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	_, err = e.engagement.Save(e.ctx, alice.ID, post.ID)
	assert.ErrorIs(t, err, ErrAlreadySaved)

	require.NoError(t, e.engagement.Unsave(e.ctx, alice.ID, post.ID))
	assert.ErrorIs(t, e.engagement.Unsave(e.ctx, alice.ID, post.ID), ErrNotSaved)

	_, err = e.engagement.Save(e.ctx, alice.ID, 12345)
	assert.ErrorIs(t, err, ErrPostNotFound)

	// Saving never notifies and never touches the like counter.
	e.fanout.Wait()
	assert.Empty(t, e.notificationsFor(t, bob.ID))
	assert.Equal(t, int64(0), e.reloadPost(t, post.ID).LikesCount)
}

func TestListLikersPages(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	post := e.post(t, author.ID, "popular")

	var likerIDs []uint
	for i := 0; i < 10; i++ {
		u := e.user(t, "liker"+string(rune('a'+i)))
		_, _, err := e.engagement.Like(e.ctx, u.ID, post.ID)
		require.NoError(t, err)
		likerIDs = append(likerIDs, u.ID)
	}
	e.fanout.Wait()

	first, err := e.engagement.ListLikers(e.ctx, post.ID, 0, DefaultLikersPageSize)
	require.NoError(t, err)
	require.Len(t, first.Likers, 9)
	assert.True(t, first.HasMorePages)
	assert.Equal(t, first.Likers[8].LikeID, first.NextCursor)
	assert.Equal(t, "likera", first.Likers[0].User.Username)

	second, err := e.engagement.ListLikers(e.ctx, post.ID, first.NextCursor, DefaultLikersPageSize)
	require.NoError(t, err)
	require.Len(t, second.Likers, 1)
	assert.False(t, second.HasMorePages)
	assert.Equal(t, likerIDs[9], second.Likers[0].User.ID)
}

func TestListLikersDefaultsPageSize(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	post := e.post(t, author.ID, "quiet")

	page, err := e.engagement.ListLikers(e.ctx, post.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Likers)
	assert.False(t, page.HasMorePages)

	_, err = e.engagement.ListLikers(e.ctx, 4242, 0, 0)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestListLikersStableUnderConcurrentInserts(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	post := e.post(t, author.ID, "growing")

	original := map[uint]bool{}
	for i := 0; i < 5; i++ {
		u := e.user(t, "early"+string(rune('a'+i)))
		_, _, err := e.engagement.Like(e.ctx, u.ID, post.ID)
		require.NoError(t, err)
		original[u.ID] = true
	}

	seen := map[uint]int{}
	var cursor uint
	inserted := false
	for {
		page, err := e.engagement.ListLikers(e.ctx, post.ID, cursor, 2)
		require.NoError(t, err)
		for _, l := range page.Likers {
			seen[l.User.ID]++
		}
		if !inserted {
			u := e.user(t, "latecomer")
			_, _, err := e.engagement.Like(e.ctx, u.ID, post.ID)
			require.NoError(t, err)
			inserted = true
		}
		if !page.HasMorePages {
			break
		}
		cursor = page.NextCursor
	}
	e.fanout.Wait()

	for id := range original {
		assert.Equal(t, 1, seen[id], "liker %d", id)
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "liker %d returned twice", id)
	}
}

func TestAnnotateViewerState(t *testing.T) {
	e := newTestEnv(t)
	viewer := e.user(t, "viewer")
	author := e.user(t, "author")
	other := e.user(t, "other")
	p1 := e.post(t, author.ID, "one")
	p2 := e.post(t, author.ID, "two")

	_, _, err := e.engagement.Like(e.ctx, viewer.ID, p1.ID)
	require.NoError(t, err)
	_, _, err = e.engagement.Like(e.ctx, other.ID, p1.ID)
	require.NoError(t, err)
	_, err = e.engagement.Save(e.ctx, viewer.ID, p2.ID)
	require.NoError(t, err)
	e.fanout.Wait()

	posts := []models.Post{e.reloadPost(t, p1.ID), e.reloadPost(t, p2.ID)}

	annotated, err := e.engagement.AnnotateViewerState(e.ctx, posts, viewer.ID)
	require.NoError(t, err)
	require.Len(t, annotated, 2)

	assert.True(t, annotated[0].IsLiked)
	assert.False(t, annotated[0].IsSaved)
	assert.Equal(t, "author", annotated[0].Author.Username)
	assert.Len(t, annotated[0].Likers, 2)
	assert.Equal(t, other.ID, annotated[0].Likers[0].ID)

	assert.False(t, annotated[1].IsLiked)
	assert.True(t, annotated[1].IsSaved)
	assert.Empty(t, annotated[1].Likers)

	anonymous, err := e.engagement.AnnotateViewerState(e.ctx, posts, 0)
	require.NoError(t, err)
	for _, p := range anonymous {
		assert.False(t, p.IsLiked)
		assert.False(t, p.IsSaved)
	}

	empty, err := e.engagement.AnnotateViewerState(e.ctx, nil, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnnotateViewerStatePreviewsEveryPost(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(t, "author")
	quiet := e.post(t, author.ID, "quiet")
	busy := e.post(t, author.ID, "busy")

	var quietLikers []uint
	for i := 0; i < 3; i++ {
		u := e.user(t, fmt.Sprintf("early%d", i))
		_, err := e.likes.CreateLike(e.ctx, &models.Like{PostID: quiet.ID, UserID: u.ID})
		require.NoError(t, err)
		quietLikers = append(quietLikers, u.ID)
	}
	// later likes on the busy post alone exceed the preview budget
	for i := 0; i < 30; i++ {
		u := e.user(t, fmt.Sprintf("late%d", i))
		_, err := e.likes.CreateLike(e.ctx, &models.Like{PostID: busy.ID, UserID: u.ID})
		require.NoError(t, err)
	}

	engagement := NewEngagementService(e.posts, e.likes, e.saves, e.users, e.fanout, 10)
	posts := []models.Post{e.reloadPost(t, quiet.ID), e.reloadPost(t, busy.ID)}

	annotated, err := engagement.AnnotateViewerState(e.ctx, posts, 0)
	require.NoError(t, err)
	require.Len(t, annotated, 2)

	require.Len(t, annotated[0].Likers, likerPreviewPerPost)
	assert.Equal(t, []uint{quietLikers[2], quietLikers[1], quietLikers[0]},
		[]uint{annotated[0].Likers[0].ID, annotated[0].Likers[1].ID, annotated[0].Likers[2].ID})
	assert.Len(t, annotated[1].Likers, likerPreviewPerPost)
}
