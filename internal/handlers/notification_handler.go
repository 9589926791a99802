package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	fanout *services.Fanout
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(fanout *services.Fanout) *NotificationHandler {
	return &NotificationHandler{fanout: fanout}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PATCH("/notifications/mark-read", h.MarkRead)
	g.GET("/activities", h.GetActivities)
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	notifications, meta, err := h.fanout.ListNotifications(c.Request().Context(), me.UserID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "notifications", notifications, meta)
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	grouped, err := h.fanout.GroupedNotifications(ctx, me.UserID)
	if err != nil {
		return httpError(c, err)
	}
	unread, err := h.fanout.UnreadCount(ctx, me.UserID)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": grouped,
			"unreadCount":   unread,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}

	count, err := h.fanout.UnreadCount(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkRead marks the listed notifications as read, or all of them when the
// body has no ids.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.MarkReadRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	count, err := h.fanout.MarkRead(c.Request().Context(), me.UserID, req.IDs)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// GetActivities returns the activity timeline of the current user
func (h *NotificationHandler) GetActivities(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	activities, meta, err := h.fanout.ListActivities(c.Request().Context(), me.UserID, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "activities", activities, meta)
}
