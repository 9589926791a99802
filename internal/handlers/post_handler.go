package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(auth, open *echo.Group) {
	auth.POST("/posts", h.CreatePost)
	auth.PUT("/posts/:post_id", h.UpdatePost)
	auth.DELETE("/posts/:post_id", h.DeletePost)
	open.GET("/posts/:post_id", h.GetPost)
}

// CreatePost handles the creation of a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), me, &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": post})
}

// GetPost returns a post annotated for the caller, if any
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), postID, middleware.ViewerID(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": post})
}

// UpdatePost edits a post; only its author or an admin may do so
func (h *PostHandler) UpdatePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), me, postID, &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": post})
}

// DeletePost removes a post; only its author or an admin may do so
func (h *PostHandler) DeletePost(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), me, postID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
