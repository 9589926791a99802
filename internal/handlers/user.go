package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// UserHandler handles user profile requests
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers profile routes. /users/search and
// /users/me are registered before /users/:id so they are not shadowed.
func (h *UserHandler) RegisterProfileRoutes(auth, open *echo.Group) {
	auth.GET("/users/me", h.GetProfile)
	auth.PUT("/users/me", h.UpdateProfile)
	open.GET("/users/search", h.SearchUsers)
	open.GET("/users/:id", h.GetUser)
}

// GetUser returns a profile with live follow counts
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.users.Profile(c.Request().Context(), userID, middleware.ViewerID(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": profile})
}

// GetProfile returns the current user's own profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}

	profile, err := h.users.Profile(c.Request().Context(), me.UserID, me.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": profile})
}

// UpdateProfile updates display name and avatar
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), me.UserID, &req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// SearchUsers matches ?q= against username and display name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}
	page, limit := pageParams(c)

	users, meta, err := h.users.Search(c.Request().Context(), query, page, limit)
	if err != nil {
		return httpError(c, err)
	}
	return listResponse(c, "users", users, meta)
}
