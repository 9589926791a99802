package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers the home feed on the authenticated group and
// explore/search on the group that allows anonymous readers.
func (h *FeedHandler) RegisterFeedRoutes(auth, open *echo.Group) {
	auth.GET("/feed", h.GetHomeFeed)
	open.GET("/feed/explore", h.GetExploreFeed)
	open.GET("/feed/search", h.SearchFeed)
}

// GetHomeFeed returns posts by the current user and everyone they follow
func (h *FeedHandler) GetHomeFeed(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	posts, meta, err := h.feed.Home(c.Request().Context(), me.UserID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "posts", posts, meta)
}

// GetExploreFeed ranks all posts by popularity
func (h *FeedHandler) GetExploreFeed(c echo.Context) error {
	page, limit := pageParams(c)

	posts, meta, err := h.feed.Explore(c.Request().Context(), middleware.ViewerID(c), page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "posts", posts, meta)
}

// SearchFeed filters posts by ?q= over title, content and tags
func (h *FeedHandler) SearchFeed(c echo.Context) error {
	page, limit := pageParams(c)

	posts, meta, err := h.feed.Search(c.Request().Context(), c.QueryParam("q"), middleware.ViewerID(c), page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "posts", posts, meta)
}
