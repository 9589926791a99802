package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes", h.GetLikers)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	like, post, err := h.engagement.Like(c.Request().Context(), me.UserID, postID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    echo.Map{"like": like, "likes_count": post.LikesCount},
	})
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	count, err := h.engagement.Unlike(c.Request().Context(), me.UserID, postID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"post_id": postID, "likes_count": count},
	})
}

// GetLikers returns one page of likers. ?cursor= continues from the
// previous page's next_cursor.
func (h *LikeHandler) GetLikers(c echo.Context) error {
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	var cursor uint64
	if raw := c.QueryParam("cursor"); raw != "" {
		cursor, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
		}
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.engagement.ListLikers(c.Request().Context(), postID, uint(cursor), limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": page})
}
