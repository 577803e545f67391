package handler_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jetci/wecare-app-sub000/internal/handler"
	"github.com/jetci/wecare-app-sub000/internal/model"
)

func TestRegisterCreatesUnapprovedAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"nationalId": "1234567890123",
		"password":   "correct horse",
		"fullName":   "Somchai J",
		"role":       "COMMUNITY",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if cookieNamed(rec, handler.RefreshCookieName) != nil {
		t.Error("register must not issue a session cookie")
	}
	if strings.Contains(rec.Body.String(), "accessToken") {
		t.Error("register must not issue an access token")
	}

	u, err := env.users.GetByNationalID(context.Background(), "1234567890123")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if u.Approved {
		t.Error("new account must start unapproved")
	}
	if u.Role != model.RoleCommunity {
		t.Errorf("role = %s, want COMMUNITY", u.Role)
	}
}

func TestRegisterElevatedRoleFallsBackToCommunity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"nationalId": "1111111111111",
		"password":   "long enough",
		"role":       "ADMIN",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201", rec.Code)
	}
	u, _ := env.users.GetByNationalID(context.Background(), "1111111111111")
	if u.Role != model.RoleCommunity {
		t.Errorf("self-registered ADMIN got role %s, want COMMUNITY", u.Role)
	}
}

func TestRegisterDuplicateIdentifier(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "2222222222222", "password1", model.RoleCommunity, true)

	rec := env.request(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"nationalId": "2222222222222",
		"password":   "password2",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rec.Code)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"nationalId": "3333333333333",
		"password":   "short",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestLoginIssuesSession(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)

	access, refresh := env.login(t, "1234567890123", "secret-pass")
	if access == "" {
		t.Fatal("empty access token")
	}
	if !refresh.HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}
	if refresh.Path != "/v1/auth" {
		t.Errorf("refresh cookie path = %q, want /v1/auth", refresh.Path)
	}
	if got := env.tokens.LiveCountForUser(u.ID); got != 1 {
		t.Errorf("live refresh tokens = %d, want 1", got)
	}

	// The access token works against the protected surface.
	rec := env.request(t, http.MethodGet, "/v1/auth/profile", nil, withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("profile with fresh token: got %d, want 200", rec.Code)
	}
}

// Unknown identifier and wrong password must be indistinguishable to
// the caller.
func TestLoginCredentialOpacity(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "1234567890123", "right-pass", model.RoleCommunity, true)

	unknown := env.request(t, http.MethodPost, "/v1/auth/login",
		map[string]string{"identifier": "9999999999999", "password": "whatever1"}, nil)
	wrongPass := env.request(t, http.MethodPost, "/v1/auth/login",
		map[string]string{"identifier": "1234567890123", "password": "wrong-pass"}, nil)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("got %d/%d, want 401/401", unknown.Code, wrongPass.Code)
	}
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Errorf("bodies differ: %q vs %q", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestLoginApprovalGate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, false)

	rec := env.request(t, http.MethodPost, "/v1/auth/login",
		map[string]string{"identifier": "1234567890123", "password": "secret-pass"}, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
	if cookieNamed(rec, handler.RefreshCookieName) != nil {
		t.Error("unapproved login must not set a refresh cookie")
	}
	if strings.Contains(rec.Body.String(), "accessToken") {
		t.Error("unapproved login must not issue tokens")
	}
}

func TestLoginApprovalBypassForPrivilegedRoles(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "7777777777777", "admin-pass", model.RoleAdmin, false)

	rec := env.request(t, http.MethodPost, "/v1/auth/login",
		map[string]string{"identifier": "7777777777777", "password": "admin-pass"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ADMIN login while unapproved: got %d, want 200", rec.Code)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)
	_, refresh := env.login(t, "1234567890123", "secret-pass")

	rec := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, withCookie(refresh))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	next := cookieNamed(rec, handler.RefreshCookieName)
	if next == nil {
		t.Fatal("refresh response missing new cookie")
	}
	if next.Value == refresh.Value {
		t.Error("refresh must rotate the token value")
	}
	if got := env.tokens.LiveCountForUser(u.ID); got != 1 {
		t.Errorf("live refresh tokens after rotation = %d, want 1", got)
	}

	// Replaying the consumed token is rejected.
	replay := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, withCookie(refresh))
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("replay of rotated token: got %d, want 401", replay.Code)
	}

	// The rotated-in token still works.
	again := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, withCookie(next))
	if again.Code != http.StatusOK {
		t.Errorf("rotated-in token: got %d, want 200", again.Code)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestRefreshWithGarbageToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/v1/auth/refresh", nil,
		withCookie(&http.Cookie{Name: handler.RefreshCookieName, Value: "not-a-real-token"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

// Two concurrent refreshes with the same cookie: exactly one wins, and
// exactly one live token remains.
func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)
	_, refresh := env.login(t, "1234567890123", "secret-pass")

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, withCookie(refresh))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	var ok, unauthorized int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusUnauthorized:
			unauthorized++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if ok != 1 {
		t.Errorf("winners = %d, want exactly 1", ok)
	}
	if unauthorized != n-1 {
		t.Errorf("losers = %d, want %d", unauthorized, n-1)
	}
	if got := env.tokens.LiveCountForUser(u.ID); got != 1 {
		t.Errorf("live refresh tokens = %d, want 1", got)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)
	_, refresh := env.login(t, "1234567890123", "secret-pass")

	rec := env.request(t, http.MethodPost, "/v1/auth/logout", nil, withCookie(refresh))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: got %d, want 200", rec.Code)
	}
	if ck := cookieNamed(rec, handler.RefreshCookieName); ck == nil || ck.MaxAge != -1 {
		t.Error("logout must clear the refresh cookie")
	}
	if got := env.tokens.LiveCountForUser(u.ID); got != 0 {
		t.Errorf("live refresh tokens after logout = %d, want 0", got)
	}

	// The revoked token is dead for refresh.
	replay := env.request(t, http.MethodPost, "/v1/auth/refresh", nil, withCookie(refresh))
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: got %d, want 401", replay.Code)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	// No session at all.
	rec := env.request(t, http.MethodPost, "/v1/auth/logout", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout without session: got %d, want 200", rec.Code)
	}

	env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)
	_, refresh := env.login(t, "1234567890123", "secret-pass")
	for i := 0; i < 2; i++ {
		rec := env.request(t, http.MethodPost, "/v1/auth/logout", nil, withCookie(refresh))
		if rec.Code != http.StatusOK {
			t.Fatalf("logout #%d: got %d, want 200", i+1, rec.Code)
		}
	}
}

func TestProfileNeverLeaksPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)

	rec := env.request(t, http.MethodGet, "/v1/auth/profile", nil, withBearer(env.accessTokenFor(t, u)))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, u.PasswordHash) || strings.Contains(body, "passwordHash") {
		t.Error("profile response leaks password hash")
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "1234567890123", "secret-pass", model.RoleCommunity, true)

	rec := env.request(t, http.MethodPut, "/v1/auth/profile", map[string]string{
		"fullName": "New Name",
		"phone":    "0812345678",
	}, withBearer(env.accessTokenFor(t, u)))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	got, _ := env.users.GetByID(context.Background(), u.ID)
	if got.FullName != "New Name" || got.Phone != "0812345678" {
		t.Errorf("profile not updated: %+v", got)
	}
}
