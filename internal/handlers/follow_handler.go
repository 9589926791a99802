package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// FollowHandler handles follow-related HTTP requests
type FollowHandler struct {
	graph *services.GraphService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.GraphService) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// Follow makes the current user follow :id
func (h *FollowHandler) Follow(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	counts, err := h.graph.Follow(c.Request().Context(), me.UserID, targetID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": counts})
}

// Unfollow removes the follow edge to :id
func (h *FollowHandler) Unfollow(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	counts, err := h.graph.Unfollow(c.Request().Context(), me.UserID, targetID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": counts})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	users, meta, err := h.graph.Followers(c.Request().Context(), userID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "followers", users, meta)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	users, meta, err := h.graph.Following(c.Request().Context(), userID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "following", users, meta)
}
