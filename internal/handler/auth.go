package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/config"
	"github.com/jetci/wecare-app-sub000/internal/middleware"
	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

// RefreshCookieName is the HTTP-only cookie carrying the opaque
// refresh token.  Scoped to the auth endpoints so it is never sent
// with ordinary API calls.
const RefreshCookieName = "refresh_token"

const refreshCookiePath = "/v1/auth"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    repository.UserRepository
	Tokens   repository.RefreshTokenRepository
	Verifier *auth.Verifier
}

func NewAuthHandler(cfg config.Config, users repository.UserRepository, tokens repository.RefreshTokenRepository) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Verifier: auth.NewVerifier(users)}
}

// ----- DTOs -----

type registerReq struct {
	NationalID string `json:"nationalId"`
	Password   string `json:"password"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type profileReq struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type userPart struct {
	ID   uint64     `json:"id"`
	Role model.Role `json:"role"`
}

type profileResp struct {
	ID         uint64     `json:"id"`
	NationalID string     `json:"nationalId"`
	Role       model.Role `json:"role"`
	Approved   bool       `json:"approved"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Register creates an unapproved account.  No tokens are issued: the
// account cannot log in until an admin approves it, so handing out a
// session here would bypass the approval gate.  Self-registration may
// request only the COMMUNITY or DRIVER role; anything else silently
// falls back to COMMUNITY.  Elevated roles are granted through the
// admin surface.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.NationalID = strings.TrimSpace(req.NationalID)
	if req.NationalID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nationalId/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	role, ok := model.ParseRole(req.Role)
	if !ok || (role != model.RoleCommunity && role != model.RoleDriver) {
		role = model.RoleCommunity
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "hash password", err)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u := model.User{
		NationalID:   req.NationalID,
		PasswordHash: hash,
		Role:         role,
		Approved:     false,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if _, err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "identifier already registered"})
		}
		return internalError(c, "create user", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         u.ID,
		"nationalId": u.NationalID,
		"role":       u.Role,
		"approved":   u.Approved,
	})
}

// Login verifies credentials and starts a session: access token in the
// body, refresh token in an HTTP-only cookie.  Unknown identifier and
// wrong password produce byte-identical responses; only the approval
// gate is allowed to look different (403).
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Verifier.Verify(ctx, req.Identifier, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredential):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrNotApproved):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account not approved"})
	case err != nil:
		return internalError(c, "verify credentials", err)
	}

	access, refresh, err := h.issueSession(ctx, u)
	if err != nil {
		return internalError(c, "issue session", err)
	}
	h.setSessionCookies(c, access, refresh)

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": access.Token,
		"user":        userPart{ID: u.ID, Role: u.Role},
	})
}

// Refresh rotates the session: the cookie's refresh token is consumed
// atomically and replaced, and a fresh access token is returned.  A
// reused, expired, unknown or raced-away token all yield the same 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshCookieValue(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	oldHash := token.HashRefreshRaw(raw)

	ctx, cancel := reqContext(c)
	defer cancel()

	rec, err := h.Tokens.Validate(ctx, oldHash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err != nil {
		return internalError(c, "validate refresh token", err)
	}

	u, err := h.Users.GetByID(ctx, rec.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// Owner row vanished; the token lineage is dead.
		_ = h.Tokens.Revoke(ctx, oldHash)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err != nil {
		return internalError(c, "load user", err)
	}

	newRefresh, err := token.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return internalError(c, "issue refresh", err)
	}
	err = h.Tokens.Rotate(ctx, oldHash, token.HashRefreshRaw(newRefresh.Raw), u.ID, newRefresh.Exp)
	if errors.Is(err, repository.ErrTokenInvalid) {
		// Lost a race against a concurrent refresh of the same token.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err != nil {
		return internalError(c, "rotate refresh token", err)
	}

	access, err := token.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return internalError(c, "issue access", err)
	}
	h.setSessionCookies(c, access, newRefresh)

	return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token})
}

// Logout revokes the cookie's refresh token, if any, and clears the
// session cookies.  Always 200: logging out twice, or with no session
// at all, is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := refreshCookieValue(c); raw != "" {
		ctx, cancel := reqContext(c)
		defer cancel()
		if err := h.Tokens.Revoke(ctx, token.HashRefreshRaw(raw)); err != nil {
			// Best effort; the cookies are cleared regardless.
			log.Printf("logout: revoke failed: %v", err)
		}
	}
	h.clearSessionCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Profile returns the authenticated user's own record.  The password
// hash never appears in the response type at all.
func (h *AuthHandler) Profile(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err != nil {
		return internalError(c, "load profile", err)
	}
	return c.JSON(http.StatusOK, profileResp{
		ID:         u.ID,
		NationalID: u.NationalID,
		Role:       u.Role,
		Approved:   u.Approved,
		FullName:   u.FullName,
		Phone:      u.Phone,
		CreatedAt:  u.CreatedAt,
	})
}

// UpdateProfile lets a user edit their own name and phone.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, sess.UserID, req.FullName, strings.TrimSpace(req.Phone)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return internalError(c, "update profile", err)
	}
	return h.Profile(c)
}

// issueSession mints the access/refresh pair for a verified user and
// persists the refresh record.
func (h *AuthHandler) issueSession(ctx context.Context, u model.User) (token.AccessToken, token.RefreshToken, error) {
	access, err := token.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return token.AccessToken{}, token.RefreshToken{}, err
	}
	refresh, err := token.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return token.AccessToken{}, token.RefreshToken{}, err
	}
	if err := h.Tokens.Store(ctx, u.ID, token.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return token.AccessToken{}, token.RefreshToken{}, err
	}
	return access, refresh, nil
}

// setSessionCookies writes the refresh cookie (scoped to the auth
// endpoints) and the access cookie (for browser requests that cannot
// set an Authorization header).  Secure is enabled in production.
func (h *AuthHandler) setSessionCookies(c echo.Context, access token.AccessToken, refresh token.RefreshToken) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh.Raw,
		Path:     refreshCookiePath,
		Expires:  refresh.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookieValue(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}
