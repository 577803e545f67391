package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/middleware"
	"github.com/jetci/wecare-app-sub000/internal/repository"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

// reqContext bounds every repository call made by a handler so a slow
// store lookup times out and surfaces as a 500 instead of hanging.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// internalError logs the real failure with full context server-side
// and returns an opaque 500 body.  Internal detail never reaches the
// client.
func internalError(c echo.Context, op string, err error) error {
	log.Printf("%s %s: %s: %v", c.Request().Method, c.Path(), op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// requireSession fetches the verified session or writes the standard
// 401.  The bool reports whether the caller may proceed.
func requireSession(c echo.Context) (token.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return token.Session{}, false
	}
	return sess, true
}

// idParam parses a numeric :id path parameter.
func idParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// respondAuthzErr maps RBAC/lookup failures after a row fetch:
// forbidden stays forbidden, a missing row is 404 (existence leaks are
// acceptable only once authorization has passed), everything else is a
// store failure.
func respondAuthzErr(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return internalError(c, op, err)
	}
}
