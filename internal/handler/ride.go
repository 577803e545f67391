package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/queue"
	"github.com/jetci/wecare-app-sub000/internal/repository"
	queue_publisher "github.com/jetci/wecare-app-sub000/internal/service"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

// RideHandler exposes the ride request/assignment/status surface.
// Publish is the ride-event sink; it defaults to the RabbitMQ
// publisher and is swapped for a no-op in tests.  Publishing is best
// effort: a broker outage delays notifications but never fails the
// request.
type RideHandler struct {
	Rides    repository.RideRepository
	Patients repository.PatientRepository
	Publish  func(ctx context.Context, ev queue.RideStatusEvent) error
}

func NewRideHandler(rides repository.RideRepository, patients repository.PatientRepository) *RideHandler {
	return &RideHandler{Rides: rides, Patients: patients, Publish: queue_publisher.PublishRideEvent}
}

type rideReq struct {
	PatientID     uint64    `json:"patientId"`
	PickupAddress string    `json:"pickupAddress"`
	Destination   string    `json:"destination"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

type assignReq struct {
	DriverID uint64 `json:"driverId"`
}

type statusReq struct {
	Status string `json:"status"`
}

type rideResp struct {
	ID            uint64           `json:"id"`
	Reference     string           `json:"reference"`
	PatientID     uint64           `json:"patientId"`
	RequestedBy   uint64           `json:"requestedByUserId"`
	DriverID      *uint64          `json:"driverId,omitempty"`
	Status        model.RideStatus `json:"status"`
	PickupAddress string           `json:"pickupAddress"`
	Destination   string           `json:"destination"`
	ScheduledAt   time.Time        `json:"scheduledAt"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func toRideResp(r model.Ride) rideResp {
	return rideResp{
		ID:            r.ID,
		Reference:     r.Reference,
		PatientID:     r.PatientID,
		RequestedBy:   r.RequestedByUserID,
		DriverID:      r.DriverID,
		Status:        r.Status,
		PickupAddress: r.PickupAddress,
		Destination:   r.Destination,
		ScheduledAt:   r.ScheduledAt,
		CreatedAt:     r.CreatedAt,
	}
}

// Create requests a ride for a patient.  The requester must own the
// patient unless their role bypasses ownership.
func (h *RideHandler) Create(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	if err := auth.Authorize(sess, model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req rideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PatientID == 0 || strings.TrimSpace(req.Destination) == "" || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patientId/destination/scheduledAt required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return respondAuthzErr(c, "load patient", err)
	}
	if err := auth.AuthorizeOwner(sess, p.ManagedByUserID,
		model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return respondAuthzErr(c, "authorize patient", err)
	}

	pickup := strings.TrimSpace(req.PickupAddress)
	if pickup == "" {
		pickup = p.Address
	}
	ride := model.Ride{
		PatientID:         p.ID,
		RequestedByUserID: sess.UserID,
		Status:            model.RideRequested,
		PickupAddress:     pickup,
		Destination:       strings.TrimSpace(req.Destination),
		ScheduledAt:       req.ScheduledAt.UTC(),
	}
	if _, err := h.Rides.Create(ctx, &ride); err != nil {
		return internalError(c, "create ride", err)
	}
	h.publish(c, ride)
	return c.JSON(http.StatusCreated, toRideResp(ride))
}

// List returns rides scoped by role: community users see rides they
// requested, drivers see rides assigned to them, everyone else sees
// all rides.
func (h *RideHandler) List(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	if err := auth.Authorize(sess, model.AllRoles...); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	role := model.Role(sess.Role)
	var (
		rides []model.Ride
		err   error
	)
	switch role {
	case model.RoleCommunity:
		rides, err = h.Rides.ListByRequester(ctx, sess.UserID)
	case model.RoleDriver:
		rides, err = h.Rides.ListByDriver(ctx, sess.UserID)
	case model.RoleHealthOfficer, model.RoleExecutive, model.RoleAdmin, model.RoleDeveloper:
		rides, err = h.Rides.ListAll(ctx)
	}
	if err != nil {
		return internalError(c, "list rides", err)
	}

	out := make([]rideResp, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one ride.  A ride's "owner" depends on the viewer: the
// requester for community users, the assigned driver for drivers.
func (h *RideHandler) Get(c echo.Context) error {
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

	ride, err := h.Rides.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load ride", err)
	}
	if err := auth.AuthorizeOwner(sess, rideOwnerFor(sess, ride), model.AllRoles...); err != nil {
		return respondAuthzErr(c, "authorize ride", err)
	}
	return c.JSON(http.StatusOK, toRideResp(ride))
}

// Assign sets the driver on a requested ride.  Admin surface.
func (h *RideHandler) Assign(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	if err := auth.Authorize(sess, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil || req.DriverID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "driverId required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ride, err := h.Rides.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load ride", err)
	}
	if ride.Status != model.RideRequested {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ride already assigned"})
	}
	if err := h.Rides.AssignDriver(ctx, id, req.DriverID); err != nil {
		return respondAuthzErr(c, "assign driver", err)
	}
	ride, err = h.Rides.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load ride", err)
	}
	h.publish(c, ride)
	return c.JSON(http.StatusOK, toRideResp(ride))
}

// UpdateStatus advances the ride lifecycle.  Drivers advance rides
// assigned to them; the requester or an admin may cancel.  Transitions
// outside the state machine are rejected.
func (h *RideHandler) UpdateStatus(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	next, ok2 := model.ParseRideStatus(req.Status)
	if !ok2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ride, err := h.Rides.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load ride", err)
	}

	if next == model.RideCancelled {
		// Requester-or-admin operation.
		if err := auth.AuthorizeOwner(sess, ride.RequestedByUserID,
			model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
			return respondAuthzErr(c, "authorize cancel", err)
		}
	} else {
		// Forward progress is a driver-or-admin operation; drivers only
		// on rides assigned to them.
		owner := uint64(0)
		if ride.DriverID != nil {
			owner = *ride.DriverID
		}
		if err := auth.AuthorizeOwner(sess, owner,
			model.RoleDriver, model.RoleAdmin, model.RoleDeveloper); err != nil {
			return respondAuthzErr(c, "authorize status", err)
		}
	}
	if !ride.Status.CanTransition(next) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	}

	if err := h.Rides.UpdateStatus(ctx, id, next); err != nil {
		return respondAuthzErr(c, "update status", err)
	}
	ride.Status = next
	h.publish(c, ride)
	return c.JSON(http.StatusOK, toRideResp(ride))
}

// rideOwnerFor picks which user counts as the ride's owner for the
// viewing session's role.
func rideOwnerFor(sess token.Session, ride model.Ride) uint64 {
	role := model.Role(sess.Role)
	if role == model.RoleDriver {
		if ride.DriverID != nil {
			return *ride.DriverID
		}
		return 0
	}
	return ride.RequestedByUserID
}

func (h *RideHandler) publish(c echo.Context, ride model.Ride) {
	if h.Publish == nil {
		return
	}
	ev := queue.RideStatusEvent{
		RideID:            ride.ID,
		Reference:         ride.Reference,
		PatientID:         ride.PatientID,
		RequestedByUserID: ride.RequestedByUserID,
		DriverID:          ride.DriverID,
		Status:            string(ride.Status),
		OccurredAt:        time.Now().UTC().Format(time.RFC3339),
	}
	// Detached context: the event should still go out if the client
	// disconnects right after the commit.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.Publish(ctx, ev)
}
