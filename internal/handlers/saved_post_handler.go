package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// SavedPostHandler handles saved post HTTP requests
type SavedPostHandler struct {
	engagement *services.EngagementService
	feed       *services.FeedService
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(engagement *services.EngagementService, feed *services.FeedService) *SavedPostHandler {
	return &SavedPostHandler{engagement: engagement, feed: feed}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/save", h.SavePost)
	g.DELETE("/posts/:post_id/save", h.UnsavePost)
	g.GET("/saved", h.GetSavedPosts)
}

// SavePost saves a post for the current user
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	saved, err := h.engagement.Save(c.Request().Context(), me.UserID, postID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": saved})
}

// UnsavePost removes a saved post
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	if err := h.engagement.Unsave(c.Request().Context(), me.UserID, postID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetSavedPosts lists the current user's saved posts, newest save first
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	posts, meta, err := h.feed.Saved(c.Request().Context(), me.UserID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "posts", posts, meta)
}
