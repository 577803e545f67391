package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// NotificationHandler serves a user's notification feed.  Rows are
// always scoped to the session's own user id, so there is no separate
// ownership check to forget.
type NotificationHandler struct {
	Notifications repository.NotificationRepository
}

func NewNotificationHandler(n repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

type notificationResp struct {
	ID        uint64    `json:"id"`
	RideID    uint64    `json:"rideId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// List returns the session user's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rows, err := h.Notifications.ListByUser(ctx, sess.UserID)
	if err != nil {
		return internalError(c, "list notifications", err)
	}
	out := make([]notificationResp, 0, len(rows))
	for _, n := range rows {
		out = append(out, notificationResp{
			ID: n.ID, RideID: n.RideID, Message: n.Message,
			Read: n.Read, CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// MarkRead flags one of the session user's notifications as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, sess.UserID); err != nil {
		return respondAuthzErr(c, "mark notification read", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
