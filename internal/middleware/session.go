package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework for defining middleware

	"github.com/jetci/wecare-app-sub000/internal/token"
)

// sessionKey is the context key under which the verified session is
// stored.  Handlers must go through SessionFrom instead of reading the
// context directly; it is the only place an identity claim is trusted.
const sessionKey = "session"

// AccessCookieName is the HTTP-only cookie carrying the access token
// for browser-originated requests that cannot set custom headers.
const AccessCookieName = "access_token"

// Authenticate returns an Echo middleware that resolves a verified
// session from the request.  Token source precedence: the
// Authorization bearer header first, falling back to the access-token
// cookie.  Every failure mode (missing, malformed, bad signature,
// expired) produces the same undifferentiated 401 response so callers
// cannot distinguish a forged token from an expired one.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				if ck, err := c.Cookie(AccessCookieName); err == nil {
					raw = ck.Value
				}
			}
			if raw == "" {
				return unauthorized(c)
			}
			sess, err := token.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c)
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session attached by Authenticate.  The
// second return is false when the route was not wrapped by the
// middleware, which is a wiring bug the handler should treat as
// unauthenticated.
func SessionFrom(c echo.Context) (token.Session, bool) {
	sess, ok := c.Get(sessionKey).(token.Session)
	return sess, ok
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// unauthorized writes the single 401 body shared by every
// authentication failure.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
