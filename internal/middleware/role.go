package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/model"
)

// RequireRole returns middleware that enforces that the authenticated
// session carries one of the given roles.  It assumes Authenticate ran
// earlier in the chain; a missing session is treated as
// unauthenticated rather than forbidden.  Ownership checks cannot be
// done here because they need the loaded resource row, so handlers
// layer auth.AuthorizeOwner on top after fetching.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok {
				return unauthorized(c)
			}
			if err := auth.Authorize(sess, roles...); err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
