package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

const identityKey = "identity"

var ErrInvalidToken = errors.New("invalid token")

// IdentityVerifier turns a bearer credential into the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// Authenticate rejects requests without a valid bearer credential.
func Authenticate(v IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			id, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves the identity when a credential is present
// and lets anonymous requests through. A bad credential is still rejected.
func OptionalAuthenticate(v IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			if token == "" {
				return next(c)
			}

			id, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFromContext(c)
		if !ok || !id.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Admin rights required")
		}
		return next(c)
	}
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	id, ok := c.Get(identityKey).(models.Identity)
	return id, ok
}

// ViewerID is the caller's user id, or zero for anonymous requests.
func ViewerID(c echo.Context) uint {
	id, _ := IdentityFromContext(c)
	return id.UserID
}

func setIdentity(c echo.Context, id models.Identity) {
	c.Set(identityKey, id)
	c.Set(logger.FieldUserID, id.UserID)
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on websocket upgrades, so the access_token query parameter is
// accepted as well.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return c.QueryParam("access_token"), nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return parts[1], nil
}
