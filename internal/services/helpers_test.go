package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
)

// recordingChannel collects pushed events.
type recordingChannel struct {
	mu     sync.Mutex
	events []live.Event
	err    error
}

func (c *recordingChannel) Send(_ context.Context, ev live.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingChannel) Events() []live.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]live.Event(nil), c.events...)
}

type staticRegistry struct {
	mu       sync.Mutex
	channels map[uint]live.Channel
}

func (r *staticRegistry) connect(userID uint) *recordingChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := &recordingChannel{}
	r.channels[userID] = ch
	return ch
}

func (r *staticRegistry) Lookup(_ context.Context, userID uint) (live.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[userID]
	return ch, ok
}

type testEnv struct {
	db  *gorm.DB
	ctx context.Context

	users         *repositories.PostgresUserRepository
	posts         *repositories.PostgresPostRepository
	likes         *repositories.PostgresLikeRepository
	saves         *repositories.PostgresSavedPostRepository
	follows       *repositories.PostgresFollowRepository
	comments      *repositories.PostgresCommentRepository
	notifications *repositories.PostgresNotificationRepository
	activities    repositories.ActivityRepository

	registry   *staticRegistry
	fanout     *Fanout
	engagement *EngagementService
	graph      *GraphService
	feed       *FeedService
	postSvc    *PostService
	commentSvc *CommentService
	userSvc    *UserService

	clock time.Time
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithActivities(t, nil)
}

// newTestEnvWithActivities lets a test replace the activity store.
func newTestEnvWithActivities(t *testing.T, activities repositories.ActivityRepository) *testEnv {
	t.Helper()
	db := openTestDB(t)

	e := &testEnv{
		db:            db,
		ctx:           context.Background(),
		users:         repositories.NewPostgresUserRepository(db),
		posts:         repositories.NewPostgresPostRepository(db),
		likes:         repositories.NewPostgresLikeRepository(db),
		saves:         repositories.NewPostgresSavedPostRepository(db),
		follows:       repositories.NewPostgresFollowRepository(db),
		comments:      repositories.NewPostgresCommentRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		activities:    activities,
		registry:      &staticRegistry{channels: map[uint]live.Channel{}},
		clock:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if e.activities == nil {
		e.activities = repositories.NewPostgresActivityRepository(db)
	}

	e.fanout = NewFanout(e.notifications, e.activities, e.users, e.registry, time.Second)
	e.engagement = NewEngagementService(e.posts, e.likes, e.saves, e.users, e.fanout, 0)
	e.graph = NewGraphService(e.follows, e.users, e.fanout)
	e.feed = NewFeedService(e.posts, e.saves, e.engagement)
	e.postSvc = NewPostService(e.posts, e.engagement)
	e.commentSvc = NewCommentService(e.comments, e.posts, e.users, e.fanout)
	e.userSvc = NewUserService(e.users, e.graph)
	return e
}

func (e *testEnv) user(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, DisplayName: username, Email: fmt.Sprintf("%s@example.com", username)}
	require.NoError(t, e.users.CreateUser(e.ctx, &u))
	return u
}

// post creates a post one minute after the previous one.
func (e *testEnv) post(t *testing.T, authorID uint, content string, tags ...string) models.Post {
	t.Helper()
	e.clock = e.clock.Add(time.Minute)
	p := models.Post{AuthorID: authorID, Content: content, Tags: models.JoinTags(tags), CreatedAt: e.clock}
	require.NoError(t, e.posts.CreatePost(e.ctx, &p))
	return p
}

func (e *testEnv) reloadPost(t *testing.T, id uint) models.Post {
	t.Helper()
	p, err := e.posts.GetPostByID(e.ctx, id)
	require.NoError(t, err)
	return *p
}

func (e *testEnv) notificationsFor(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, e.db.Where("recipient_id = ?", recipientID).Order("id").Find(&rows).Error)
	return rows
}

func (e *testEnv) countRows(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func postIDs(posts []models.EnrichedPost) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
