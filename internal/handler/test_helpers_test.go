package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/config"
	"github.com/jetci/wecare-app-sub000/internal/handler"
	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/queue"
	"github.com/jetci/wecare-app-sub000/internal/repository/memory"
	"github.com/jetci/wecare-app-sub000/internal/router"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

const testSecret = "test-secret"

// testEnv wires the full route table against in-memory repositories.
type testEnv struct {
	e             *echo.Echo
	cfg           config.Config
	users         *memory.UserStore
	tokens        *memory.TokenStore
	patients      *memory.PatientStore
	rides         *memory.RideStore
	notifications *memory.NotificationStore
	published     []queue.RideStatusEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		cfg: config.Config{
			Env:            "test",
			JWTSecret:      testSecret,
			AccessTTLMin:   15,
			RefreshTTLDays: 14,
			BcryptCost:     4, // min cost keeps the suite fast
		},
		users:         memory.NewUserStore(),
		tokens:        memory.NewTokenStore(),
		patients:      memory.NewPatientStore(),
		rides:         memory.NewRideStore(),
		notifications: memory.NewNotificationStore(),
	}

	rides := handler.NewRideHandler(env.rides, env.patients)
	rides.Publish = func(_ context.Context, ev queue.RideStatusEvent) error {
		env.published = append(env.published, ev)
		return nil
	}

	env.e = echo.New()
	router.Register(env.e, env.cfg, router.Handlers{
		Auth:          handler.NewAuthHandler(env.cfg, env.users, env.tokens),
		Patients:      handler.NewPatientHandler(env.patients),
		Rides:         rides,
		Notifications: handler.NewNotificationHandler(env.notifications),
		Admin:         handler.NewAdminHandler(env.users, env.tokens),
		Reports:       handler.NewReportHandler(env.rides),
	}, nil)
	return env
}

// seedUser creates an account directly in the store and returns it.
func (env *testEnv) seedUser(t *testing.T, nationalID, password string, role model.Role, approved bool) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password, env.cfg.BcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := model.User{
		NationalID:   nationalID,
		PasswordHash: hash,
		Role:         role,
		Approved:     approved,
		FullName:     "Test " + nationalID,
	}
	if _, err := env.users.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// accessTokenFor mints a valid access token for a seeded user, letting
// resource tests skip the login round trip.
func (env *testEnv) accessTokenFor(t *testing.T, u model.User) string {
	t.Helper()
	at, err := token.NewAccessToken(env.cfg.JWTSecret, u.ID, string(u.Role), env.cfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return at.Token
}

// request performs one request against the route table and returns the
// recorder.  body is JSON-marshalled when non-nil; mutate customizes
// the request (auth header, cookies) before dispatch.
func (env *testEnv) request(t *testing.T, method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func withBearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(ck *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(ck) }
}

// login performs a full login and returns the access token and the
// refresh cookie.
func (env *testEnv) login(t *testing.T, identifier, password string) (string, *http.Cookie) {
	t.Helper()
	rec := env.request(t, http.MethodPost, "/v1/auth/login",
		map[string]string{"identifier": identifier, "password": password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	ck := cookieNamed(rec, handler.RefreshCookieName)
	if ck == nil {
		t.Fatal("login response missing refresh cookie")
	}
	return resp.AccessToken, ck
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
