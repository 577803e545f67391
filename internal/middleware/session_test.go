package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/middleware"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

const secret = "mw-test-secret"

// probe echoes the session back so tests can check what the middleware
// attached.
func newProbe() *echo.Echo {
	e := echo.New()
	e.GET("/probe", func(c echo.Context) error {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
		}
		return c.JSON(http.StatusOK, echo.Map{"userId": sess.UserID, "role": sess.Role})
	}, middleware.Authenticate(secret))
	return e
}

func mint(t *testing.T, userID uint64, role string) string {
	t.Helper()
	at, err := token.NewAccessToken(secret, userID, role, 15)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return at.Token
}

func TestAuthenticateBearerHeader(t *testing.T) {
	e := newProbe()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, 42, "COMMUNITY"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestAuthenticateCookieFallback(t *testing.T) {
	e := newProbe()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookieName, Value: mint(t, 42, "COMMUNITY")})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
}

// The bearer header wins over the cookie when both are present.
func TestAuthenticateHeaderPrecedence(t *testing.T) {
	e := newProbe()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, 1, "ADMIN"))
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookieName, Value: mint(t, 2, "COMMUNITY")})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"userId":1`) {
		t.Errorf("session came from cookie, not header: %s", body)
	}
}

// Every failure mode yields one identical 401 body.
func TestAuthenticateUndifferentiatedFailure(t *testing.T) {
	e := newProbe()

	expired, err := token.NewAccessToken(secret, 42, "COMMUNITY", -1)
	if err != nil {
		t.Fatalf("mint expired: %v", err)
	}
	wrongKey, err := token.NewAccessToken("other-secret", 42, "COMMUNITY", 15)
	if err != nil {
		t.Fatalf("mint wrong key: %v", err)
	}

	cases := map[string]func(*http.Request){
		"missing":   func(*http.Request) {},
		"malformed": func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
		"no prefix": func(r *http.Request) { r.Header.Set("Authorization", mint(t, 42, "COMMUNITY")) },
		"expired":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired.Token) },
		"bad key":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey.Token) },
	}

	var want string
	for name, mutate := range cases {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", name, rec.Code)
			continue
		}
		if want == "" {
			want = rec.Body.String()
		} else if rec.Body.String() != want {
			t.Errorf("%s: body %q differs from %q", name, rec.Body.String(), want)
		}
	}
}

func TestSessionFromWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := middleware.SessionFrom(c); ok {
		t.Error("SessionFrom reported a session on a bare context")
	}
}
