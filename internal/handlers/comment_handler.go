package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(auth, open *echo.Group) {
	auth.POST("/posts/:post_id/comments", h.CreateComment)
	auth.PUT("/comments/:id", h.UpdateComment)
	auth.DELETE("/comments/:id", h.DeleteComment)
	open.GET("/posts/:post_id/comments", h.GetCommentsForPost)
}

// CreateComment handles the creation of a new comment
func (h *CommentHandler) CreateComment(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.Request().Context(), me, postID, req.Content)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": comment})
}

// GetCommentsForPost retrieves comments for a post, oldest first
func (h *CommentHandler) GetCommentsForPost(c echo.Context) error {
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	comments, meta, err := h.comments.List(c.Request().Context(), postID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "comments", comments, meta)
}

// UpdateComment edits a comment; only its author or an admin may do so
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	commentID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Update(c.Request().Context(), me, commentID, req.Content)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": comment})
}

// DeleteComment removes a comment; only its author or an admin may do so
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	commentID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), me, commentID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
