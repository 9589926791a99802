package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/handlers"
	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/internal/services"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

// Dependencies are the process-wide collaborators built in main.
type Dependencies struct {
	Config    *config.Config
	DB        *config.DB
	Verifier  middleware.IdentityVerifier
	Registry  live.Registry
	Connector live.Connector
}

// SetupRoutes migrates the schema, builds repositories and services and
// registers every route. The returned Fanout must be drained on shutdown.
func SetupRoutes(e *echo.Echo, deps Dependencies) (*services.Fanout, error) {
	l := logger.L()
	cfg := deps.Config
	db := deps.DB.SQL

	if err := repositories.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	l.Info().Str("driver", cfg.DatabaseDriver).Msg("auto-migrations completed")

	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	likeRepo := repositories.NewPostgresLikeRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)

	activityRepo, err := activityStore(cfg, deps.DB)
	if err != nil {
		return nil, err
	}
	l.Info().Str("store", cfg.ActivityStore).Msg("activity store configured")

	// --- Initialize Services ---
	fanout := services.NewFanout(notificationRepo, activityRepo, userRepo, deps.Registry, cfg.FanoutTimeout)
	engagement := services.NewEngagementService(postRepo, likeRepo, savedPostRepo, userRepo, fanout, cfg.LikerPreviewLimit)
	graph := services.NewGraphService(followRepo, userRepo, fanout)
	users := services.NewUserService(userRepo, graph)
	feed := services.NewFeedService(postRepo, savedPostRepo, engagement)
	posts := services.NewPostService(postRepo, engagement)
	comments := services.NewCommentService(commentRepo, postRepo, userRepo, fanout)

	// Both groups share the prefix; auth rejects anonymous callers while
	// open only attaches an identity when a token is present.
	auth := e.Group("/api/v1", middleware.Authenticate(deps.Verifier))
	open := e.Group("/api/v1", middleware.OptionalAuthenticate(deps.Verifier))

	handlers.NewUserHandler(users).RegisterProfileRoutes(auth, open)
	handlers.NewPostHandler(posts).RegisterPostRoutes(auth, open)
	handlers.NewFeedHandler(feed).RegisterFeedRoutes(auth, open)
	handlers.NewFollowHandler(graph).RegisterFollowRoutes(auth)
	handlers.NewCommentHandler(comments).RegisterCommentRoutes(auth, open)
	handlers.NewLikeHandler(engagement).RegisterLikeRoutes(auth)
	handlers.NewSavedPostHandler(engagement, feed).RegisterSavedPostRoutes(auth)
	handlers.NewNotificationHandler(fanout).RegisterNotificationRoutes(auth)
	handlers.NewWSHandler(deps.Connector, fanout, live.DefaultClientConfig()).RegisterWSRoutes(auth)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Route not found")
	})

	l.Info().Int("routes", len(e.Routes())).Msg("all routes configured")
	return fanout, nil
}

func activityStore(cfg *config.Config, db *config.DB) (repositories.ActivityRepository, error) {
	if cfg.ActivityStore != "mongo" {
		return repositories.NewPostgresActivityRepository(db.SQL), nil
	}
	if db.Mongo == nil {
		return nil, fmt.Errorf("ACTIVITY_STORE=mongo but no MongoDB connection")
	}

	repo := repositories.NewMongoActivityRepository(db.Mongo.Database(cfg.MongoDatabase))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return repo, nil
}
