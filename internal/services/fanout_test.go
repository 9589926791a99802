package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
)

type failingActivities struct{}

func (failingActivities) CreateActivity(context.Context, *models.Activity) error {
	return errors.New("activity store unavailable")
}

func (failingActivities) GetByTargetUserID(context.Context, uint, int, int) ([]models.Activity, int64, error) {
	return nil, 0, errors.New("activity store unavailable")
}

func TestFanoutPushesToConnectedRecipient(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")
	ch := e.registry.connect(bob.ID)

	_, _, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	e.fanout.Wait()

	events := ch.Events()
	require.Len(t, events, 2)
	assert.Equal(t, live.KindNotification, events[0].Kind)
	require.NotNil(t, events[0].Notification)
	assert.Equal(t, "alice", events[0].Notification.Actor.Username)
	assert.Equal(t, models.NotificationLike, events[0].Notification.Type)

	assert.Equal(t, live.KindUnreadCount, events[1].Kind)
	require.NotNil(t, events[1].UnreadCount)
	assert.Equal(t, int64(1), *events[1].UnreadCount)
}

func TestFanoutPushFailureIsSwallowed(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	ch := e.registry.connect(bob.ID)
	ch.err = live.ErrChannelClosed

	before := testutil.ToFloat64(metrics.LivePushTotal.WithLabelValues(metrics.PushFailed))

	_, err := e.graph.Follow(e.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	e.fanout.Wait()

	assert.Len(t, e.notificationsFor(t, bob.ID), 1)
	assert.Greater(t, testutil.ToFloat64(metrics.LivePushTotal.WithLabelValues(metrics.PushFailed)), before)
}

func TestFanoutWriteFailureDoesNotFailMutation(t *testing.T) {
	e := newTestEnvWithActivities(t, failingActivities{})
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "hello")

	before := testutil.ToFloat64(metrics.FanoutWriteErrors.WithLabelValues(metrics.ProjectionActivity))

	_, updated, err := e.engagement.Like(e.ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.LikesCount)
	e.fanout.Wait()

	assert.Len(t, e.notificationsFor(t, bob.ID), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FanoutWriteErrors.WithLabelValues(metrics.ProjectionActivity)))
}

func TestNotifySkipsSelf(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")

	e.fanout.Notify(e.ctx, models.InteractionEvent{
		Type:        models.NotificationFollow,
		ActorID:     alice.ID,
		RecipientID: alice.ID,
	})

	assert.Empty(t, e.notificationsFor(t, alice.ID))
	assert.Equal(t, int64(0), e.countRows(t, &models.Activity{}, "user_id = ?", alice.ID))
}

func TestNotifyWritesBothProjections(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	postID := uint(77)

	e.fanout.Notify(e.ctx, models.InteractionEvent{
		Type:        models.NotificationComment,
		ActorID:     alice.ID,
		RecipientID: bob.ID,
		PostID:      &postID,
		Message:     "commented on your post",
	})

	notifications := e.notificationsFor(t, bob.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "commented on your post", notifications[0].Message)

	activities, meta, err := e.fanout.ListActivities(e.ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, alice.ID, activities[0].UserID)
	assert.Equal(t, models.NotificationComment, activities[0].Type)
	require.NotNil(t, activities[0].PostID)
	assert.Equal(t, postID, *activities[0].PostID)
	assert.Equal(t, int64(1), meta.TotalItems)
}

func TestMarkRead(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")

	for i := 0; i < 3; i++ {
		e.fanout.Notify(e.ctx, models.InteractionEvent{Type: models.NotificationLike, ActorID: alice.ID, RecipientID: bob.ID})
	}
	e.fanout.Notify(e.ctx, models.InteractionEvent{Type: models.NotificationLike, ActorID: alice.ID, RecipientID: carol.ID})

	bobs := e.notificationsFor(t, bob.ID)
	carols := e.notificationsFor(t, carol.ID)
	require.Len(t, bobs, 3)
	require.Len(t, carols, 1)

	ch := e.registry.connect(bob.ID)

	// Carol's id is ignored when Bob marks it.
	count, err := e.fanout.MarkRead(e.ctx, bob.ID, []uint{bobs[0].ID, carols[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	carolUnread, err := e.fanout.UnreadCount(e.ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), carolUnread)

	count, err = e.fanout.MarkRead(e.ctx, bob.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	events := ch.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), *events[0].UnreadCount)
	assert.Equal(t, int64(0), *events[1].UnreadCount)

	// Read never flips back.
	count, err = e.fanout.MarkRead(e.ctx, bob.ID, []uint{bobs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListNotificationsEnriched(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e.fanout.Notify(e.ctx, models.InteractionEvent{
			Type:        models.NotificationFollow,
			ActorID:     alice.ID,
			RecipientID: bob.ID,
			OccurredAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	items, meta, err := e.fanout.ListNotifications(e.ctx, bob.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alice", items[0].Actor.Username)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
}

func TestDrainHonoursContext(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.fanout.Drain(context.Background()))
}
