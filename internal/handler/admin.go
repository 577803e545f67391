package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// AdminHandler exposes account administration: listing users,
// approving registrations, and disabling accounts.  Routes are mounted
// behind RequireRole(ADMIN, DEVELOPER); handlers assume that gate.
type AdminHandler struct {
	Users  repository.UserRepository
	Tokens repository.RefreshTokenRepository
}

func NewAdminHandler(users repository.UserRepository, tokens repository.RefreshTokenRepository) *AdminHandler {
	return &AdminHandler{Users: users, Tokens: tokens}
}

type adminUserResp struct {
	ID         uint64     `json:"id"`
	NationalID string     `json:"nationalId"`
	Role       model.Role `json:"role"`
	Approved   bool       `json:"approved"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ListUsers returns every account, newest first.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return internalError(c, "list users", err)
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{
			ID: u.ID, NationalID: u.NationalID, Role: u.Role,
			Approved: u.Approved, FullName: u.FullName, Phone: u.Phone,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Approve flips an account to approved so it can log in.
func (h *AdminHandler) Approve(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.SetApproved(ctx, id, true); err != nil {
		return respondAuthzErr(c, "approve user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Disable un-approves an account and revokes every refresh token it
// holds, so existing sessions die as soon as their access tokens
// expire.
func (h *AdminHandler) Disable(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.SetApproved(ctx, id, false); err != nil {
		return respondAuthzErr(c, "disable user", err)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		return internalError(c, "revoke user tokens", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
